package file

import (
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/lynchpipe/internal/report"
	"github.com/googlegenomics/lynchpipe/internal/status"
)

const reportSuffix = "_lynch_report.txt"

//NewListHandler returns a handler that lists the sample ids with a finished
//report in the directory.
func NewListHandler(directory string) func(c *gin.Context) {
	return func(c *gin.Context) {
		entries, err := os.ReadDir(directory)
		if err != nil {
			c.String(500, "Error reading report directory")
			return
		}

		samples := []string{}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, reportSuffix) {
				samples = append(samples, strings.TrimSuffix(name, reportSuffix))
			}
		}
		sort.Strings(samples)
		c.JSON(200, gin.H{"samples": samples})
	}
}

//NewReportHandler returns a handler that serves one sample's report as plain
//text.
func NewReportHandler(directory string) func(c *gin.Context) {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" || strings.ContainsAny(id, "/\\") {
			c.String(400, "Invalid sample id")
			return
		}

		data, err := os.ReadFile(directory + "/" + report.Filename(id))
		if err != nil {
			c.String(404, "No report for sample")
			return
		}
		c.Data(200, "text/plain; charset=utf-8", data)
	}
}

//NewStatusHandler returns a handler that serves the last run's status file.
func NewStatusHandler(directory string) func(c *gin.Context) {
	return func(c *gin.Context) {
		run, err := status.Read(directory + "/" + status.Filename)
		if err != nil {
			c.String(404, "No run status available")
			return
		}
		c.JSON(200, run)
	}
}
