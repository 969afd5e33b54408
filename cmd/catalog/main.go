package main

import "catalog-backend/cmd/catalog/cmd"

func main() {
	cmd.Execute()
}
