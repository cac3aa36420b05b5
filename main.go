package main

import "github.com/chasemp/mealplanner/cmd/mealplan"

func main() {
	mealplan.Execute()
}
