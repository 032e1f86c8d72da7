// Gallery Terminal Client
//
// Browses a gallery server from the terminal using the same view pipeline
// the web app runs: fetch, derive categories, filter, sort.
//
// Interactive commands:
//
//	filter <category>   Toggle a category filter
//	sort <date|name|size>
//	reload              Refetch the catalog from the server
//	category <name>     Reload scoped to one category server-side
//	quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/view"
)

// textRenderer prints the view to stdout.
type textRenderer struct{}

func (textRenderer) DisplayCategories(categories []string) {
	if len(categories) == 0 {
		fmt.Println("categories: (none)")
		return
	}
	fmt.Printf("categories: %s\n", strings.Join(categories, ", "))
}

func (textRenderer) DisplayImages(images []catalog.ImageRecord) {
	fmt.Printf("%d image(s):\n", len(images))
	for _, img := range images {
		mod := time.Unix(img.FileInfo.Modified, 0).Format("2006-01-02 15:04")
		fmt.Printf("  %-50s %10d  %s\n", img.FileInfo.Path, img.FileInfo.Size, mod)
	}
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Gallery server URL")
	sortBy := flag.String("sort", view.SortDate, "Sort criteria: date, name or size")
	category := flag.String("category", "", "Load only this category")
	interactive := flag.Bool("i", false, "Interactive mode")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flag.Parse()

	if err := logging.Init(logging.Config{Level: "warn", Format: "console"}); err != nil {
		fmt.Fprintln(os.Stderr, "logging init error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	client := &http.Client{Timeout: *timeout}
	ctrl := view.NewController(strings.TrimRight(*serverURL, "/"), client, textRenderer{})
	ctrl.ApplyFiltersAndSort(*sortBy)

	ctx := context.Background()
	var err error
	if *category != "" {
		err = ctrl.LoadCategory(ctx, *category)
	} else {
		err = ctrl.Load(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "load failed:", err)
		os.Exit(1)
	}

	if !*interactive {
		return
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "filter":
			if len(fields) < 2 {
				fmt.Println("usage: filter <category>")
				continue
			}
			ctrl.ToggleFilter(fields[1])
		case "sort":
			if len(fields) < 2 {
				fmt.Println("usage: sort <date|name|size>")
				continue
			}
			ctrl.ApplyFiltersAndSort(fields[1])
		case "reload":
			if err := ctrl.Load(ctx); err != nil {
				fmt.Println("reload failed:", err)
			}
		case "category":
			if len(fields) < 2 {
				fmt.Println("usage: category <name>")
				continue
			}
			if err := ctrl.LoadCategory(ctx, fields[1]); err != nil {
				fmt.Println("load failed:", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: filter, sort, reload, category, quit")
		}
	}
}
