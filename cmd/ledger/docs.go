package main

// @title Stock Ledger Service API
// @version 1.0
// @description Stock ledger engine: atomic stock movements with an immutable audit trail

// @contact.name API Support
// @contact.url http://github.com/tair/stock-ledger

// @license.name MIT
// @license.url https://github.com/tair/stock-ledger/blob/main/LICENSE

// @host localhost:8083
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Stock
// @tag.description Stock movement operations

// @tag.name Items
// @tag.description Item lookups

// @tag.name Transactions
// @tag.description Ledger history

// @tag.name Health
// @tag.description Health check endpoints
