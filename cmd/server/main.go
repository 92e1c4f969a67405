package main

import "dealflow/internal/app"

// @title           Dealflow CRM API
// @version         1.0
// @description     Multi-tenant CRM backend: kanban deal pipelines, contacts, activities and an AI assist proxy.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
