package changeset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMalformedResponse indicates the upstream body could not be parsed as
// well-formed XML. This is an upstream contract violation, not a retryable
// condition.
var ErrMalformedResponse = errors.New("malformed changeset response")

// ParsePage parses one page of the changeset listing endpoint and returns
// every top-level changeset element as a Record. A well-formed body with no
// changeset elements returns an empty slice; that is the normal end-of-data
// signal, not an error.
func ParsePage(body []byte) ([]Record, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	records := []Record{}
	sawRoot := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if se.Name.Local != "changeset" {
			continue
		}

		record, err := parseChangeset(decoder, se)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		records = append(records, record)
	}

	// A body with no XML elements at all (an HTML error page, a bare status
	// line) is an upstream contract violation, not an empty page
	if !sawRoot {
		return nil, fmt.Errorf("%w: no XML root element", ErrMalformedResponse)
	}

	return records, nil
}

// parseChangeset parses a changeset element and its tag children
func parseChangeset(decoder *xml.Decoder, start xml.StartElement) (Record, error) {
	record := Record{Editor: UnknownEditor}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			record.ID = attr.Value
		case "created_at":
			record.CreatedAt = attr.Value
		case "closed_at":
			record.ClosedAt = attr.Value
		case "changes_count":
			// Missing or unparseable counts fold in as zero
			n, err := strconv.ParseInt(attr.Value, 10, 64)
			if err == nil && n >= 0 {
				record.ChangesCount = n
			}
		case "min_lon":
			record.MinLon = attr.Value
		case "min_lat":
			record.MinLat = attr.Value
		case "max_lon":
			record.MaxLon = attr.Value
		case "max_lat":
			record.MaxLat = attr.Value
		}
	}

	// Parse child elements (tags)
	for {
		token, err := decoder.Token()
		if err != nil {
			return record, err
		}

		switch se := token.(type) {
		case xml.StartElement:
			if se.Name.Local == "tag" {
				var k, v string
				for _, attr := range se.Attr {
					switch attr.Name.Local {
					case "k":
						k = attr.Value
					case "v":
						v = attr.Value
					}
				}
				if k == "created_by" && v != "" {
					record.Editor = v
				}
			}
		case xml.EndElement:
			if se.Name.Local == "changeset" {
				return record, nil
			}
		}
	}
}
