// Package enao extracts the genre list from the visualization at
// everynoise.com. The seed subcommand uses it to find genre names the
// curated bucket rules don't cover yet.
package enao

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/choiniere/bucketlist/request"
)

const allGenresURL = "https://everynoise.com"

// A Genre is one entry scraped from the visualization: its name and the
// example track everynoise plays for it.
type Genre struct {
	Name    string
	Example string
}

// AllGenres requests the html page at everynoise.com and parses out every
// genre it plots.
func AllGenres() ([]Genre, error) {
	doc, err := request.FetchHTML(allGenresURL)
	if err != nil {
		return nil, err
	}

	var genres []Genre
	doc.Find("div.canvas > div").Each(func(i int, sel *goquery.Selection) {
		genre := Genre{Name: genreName(sel)}
		if title, found := sel.Attr("title"); found {
			genre.Example = strings.TrimPrefix(title, "e.g. ")
		}
		if genre.Name != "" {
			genres = append(genres, genre)
		}
	})

	return genres, nil
}

func genreName(sel *goquery.Selection) string {
	return strings.TrimSpace(strings.TrimSuffix(sel.Text(), "» "))
}
