package main

import "github.com/cleberrangel/schedule-progress-api/cmd/taskextract/root"

func main() {
	root.Execute()
}
