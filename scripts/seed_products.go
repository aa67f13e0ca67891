// seed_products.go: standalone script that posts YAML product fixtures to the admin API.
//
// Usage:
//
//	go run scripts/seed_products.go -fixtures fixtures/products.yaml -api http://localhost:8700 -token $SUPPSCORE_ADMIN_TOKEN
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
)

func main() {
	fixturesPath := flag.String("fixtures", "fixtures/products.yaml", "path to product fixtures")
	apiURL := flag.String("api", "http://localhost:8700", "Suppscore API base URL")
	token := flag.String("token", "", "admin bearer token")
	dryRun := flag.Bool("dry-run", false, "print products without posting")
	flag.Parse()

	products, err := catalog.LoadFixtures(*fixturesPath)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}
	log.Printf("parsed %d products from %s", len(products), *fixturesPath)

	if *dryRun {
		for i, p := range products {
			fmt.Printf("[%d] %s (brand=%s, ingredients=%d, form=%s)\n", i+1, p.Name, p.Brand, len(p.Ingredients), p.Form)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, p := range products {
		p.ID = ""
		body, _ := json.Marshal(p)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/products", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", p.Name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", p.Name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d", p.Name, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
