package scraper

import (
	"context"
	"errors"
	"fmt"

	"catalog-backend/internal/catalog"
	"catalog-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_faculties_fetch     = "faculties.fetch"
	report_faculties_container = "faculties.missing-container"
	report_faculties_item      = "faculties.item"
)

// ErrStructuralDrift is returned when the catalog page no longer lists any
// faculty, usually because the markup changed.
var ErrStructuralDrift = errors.New("catalog page lists no faculties")

const facultyListSelector = "body > div.content > div.container > div.row > div.col.col-md-6.col-lg-5.offset-lg-2 > ul"

// Faculties lists every faculty on the catalog page. A page without any
// faculty yields an empty result and ErrStructuralDrift.
func (s Scraper) Faculties(ctx context.Context) (catalog.Faculties, error) {
	doc, err := s.fetchDocument(ctx, s.catalogUrl)
	if err != nil {
		s.tel.ReportBroken(report_faculties_fetch, err)
		return catalog.Faculties{}, fmt.Errorf("faculties: %w", err)
	}
	faculties := s.parseFaculties(doc)
	if len(faculties) == 0 {
		return faculties, fmt.Errorf("faculties: %w: %s", ErrStructuralDrift, s.catalogUrl)
	}
	return faculties, nil
}

func (s Scraper) parseFaculties(doc *goquery.Document) catalog.Faculties {
	faculties := catalog.Faculties{}

	container := doc.Find(facultyListSelector).First()
	if container.Length() == 0 {
		s.tel.ReportWarning(report_faculties_container, s.catalogUrl)
		return faculties
	}

	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		anchor, ok := htmlutil.GetAnchor(s.root, li.Find("a"))
		if !ok {
			s.tel.ReportWarning(report_faculties_item, "no link", htmlutil.Text(li))
			return
		}
		code, name, ok := splitListing(anchor.Name)
		if !ok {
			s.tel.ReportWarning(report_faculties_item, "no separator", anchor.Name)
			return
		}
		faculties[code] = catalog.Faculty{
			Name: name,
			Link: anchor.Url.String(),
		}
	})

	s.tel.ReportCount(report_faculties_item, int64(len(faculties)))
	return faculties
}
