package main

import (
	"github.com/quilldesk/quilldesk/app"
)

func main() {
	app.New().Run()
}
