// This binary serves finished Lynch syndrome screening reports and run
// status over HTTP.  It reads whatever the pipeline runner left in the
// reports directory; it never mutates pipeline state.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/lynchpipe/lynchpipe-server/file"
)

var (
	port      = flag.Int("port", 8080, "HTTP service port")
	directory = flag.String("directory", "", "reports directory written by the pipeline runner")
)

func main() {
	flag.Parse()

	if *directory == "" {
		log.Fatalf("You must specify -directory.")
	}

	router := gin.Default()
	router.GET("/reports", file.NewListHandler(*directory))
	router.GET("/reports/:id", file.NewReportHandler(*directory))
	router.GET("/status", file.NewStatusHandler(*directory))

	if err := router.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatalf("HTTP server returned an error: %v", err)
	}
}
