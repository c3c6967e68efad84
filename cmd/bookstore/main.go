// Command bookstore runs the ChapterZero bookstore identity API.
//
// @title                       ChapterZero Bookstore Identity API
// @version                     1.0
// @description                 Registration, authentication and account endpoints of the ChapterZero bookstore.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
