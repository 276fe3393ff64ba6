// Package collection parses Rekordbox XML collection exports into track records.
package collection

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrInvalidDocument is matched by every error Parse returns for input that
// is not a readable collection export.
var ErrInvalidDocument = errors.New("invalid collection document")

// ParseError reports a document that is not well-formed XML or lacks a COLLECTION element.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return ErrInvalidDocument.Error() + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrInvalidDocument }

type document struct {
	XMLName    xml.Name
	Version    string         `xml:"Version,attr"`
	Product    rawProduct     `xml:"PRODUCT"`
	Collection *rawCollection `xml:"COLLECTION"`
}

type rawProduct struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
	Company string `xml:"Company,attr"`
}

type rawCollection struct {
	Entries string     `xml:"Entries,attr"`
	Tracks  []rawTrack `xml:"TRACK"`
}

type rawTrack struct {
	TrackID     string `xml:"TrackID,attr"`
	Name        string `xml:"Name,attr"`
	Artist      string `xml:"Artist,attr"`
	Composer    string `xml:"Composer,attr"`
	Album       string `xml:"Album,attr"`
	Grouping    string `xml:"Grouping,attr"`
	Genre       string `xml:"Genre,attr"`
	Kind        string `xml:"Kind,attr"`
	Size        string `xml:"Size,attr"`
	TotalTime   string `xml:"TotalTime,attr"`
	DiscNumber  string `xml:"DiscNumber,attr"`
	TrackNumber string `xml:"TrackNumber,attr"`
	Year        string `xml:"Year,attr"`
	AverageBpm  string `xml:"AverageBpm,attr"`
	DateAdded   string `xml:"DateAdded,attr"`
	BitRate     string `xml:"BitRate,attr"`
	SampleRate  string `xml:"SampleRate,attr"`
	Comments    string `xml:"Comments,attr"`
	PlayCount   string `xml:"PlayCount,attr"`
	Rating      string `xml:"Rating,attr"`
	Location    string `xml:"Location,attr"`
	Remixer     string `xml:"Remixer,attr"`
	Tonality    string `xml:"Tonality,attr"`
	Label       string `xml:"Label,attr"`

	Tempos []rawTempo `xml:"TEMPO"`
	Marks  []rawMark  `xml:"POSITION_MARK"`
}

type rawTempo struct {
	Inizio  string `xml:"Inizio,attr"`
	Bpm     string `xml:"Bpm,attr"`
	Metro   string `xml:"Metro,attr"`
	Battito string `xml:"Battito,attr"`
}

type rawMark struct {
	Name  string `xml:"Name,attr"`
	Type  string `xml:"Type,attr"`
	Start string `xml:"Start,attr"`
	End   string `xml:"End,attr"`
	Num   string `xml:"Num,attr"`
	Red   string `xml:"Red,attr"`
	Green string `xml:"Green,attr"`
	Blue  string `xml:"Blue,attr"`
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Parser turns export documents into collections. The zero value is not usable; use NewParser.
type Parser struct {
	logger zerolog.Logger
}

// NewParser returns a parser that reports dropped attributes at debug level.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse parses data with a parser that does not log.
func Parse(data []byte) (*Collection, error) {
	return NewParser(zerolog.Nop()).Parse(data)
}

// Decode reads r to the end and parses it.
func (p *Parser) Decode(r io.Reader) (*Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}
	return p.Parse(data)
}

// Parse converts a Rekordbox XML export into a Collection.
// Only an unreadable document is an error; attributes that are missing or
// malformed leave the corresponding field empty.
func (p *Parser) Parse(data []byte) (*Collection, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Collection == nil {
		return nil, &ParseError{Err: fmt.Errorf("no COLLECTION element under <%s>", doc.XMLName.Local)}
	}

	coll := &Collection{
		Metadata: Metadata{
			ProductName:    doc.Product.Name,
			ProductVersion: doc.Product.Version,
			ProductCompany: doc.Product.Company,
			FormatVersion:  doc.Version,
		},
		Tracks: make([]Track, 0, len(doc.Collection.Tracks)),
	}
	if n, err := parseInt(doc.Collection.Entries); err == nil {
		coll.Metadata.DeclaredEntries = &n
	}

	for i := range doc.Collection.Tracks {
		fr := fieldReader{logger: p.logger.With().Int("index", i).Str("track_id", doc.Collection.Tracks[i].TrackID).Logger()}
		coll.Tracks = append(coll.Tracks, fr.track(&doc.Collection.Tracks[i]))
		coll.Metadata.MalformedFields += fr.dropped
	}
	coll.Metadata.TrackCount = len(coll.Tracks)

	p.logger.Debug().
		Int("tracks", coll.Metadata.TrackCount).
		Int("malformed_fields", coll.Metadata.MalformedFields).
		Str("product", strings.TrimSpace(coll.Metadata.ProductName+" "+coll.Metadata.ProductVersion)).
		Msg("collection parsed")

	return coll, nil
}

func decodeDocument(data []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.Strict = true
	dec.CharsetReader = charsetReader

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no root element found")
		}
		return nil, fmt.Errorf("decoding XML: %w", err)
	}

	// Decode stops at the end of the root element; the rest must still be well-formed.
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("unexpected text after root element")
			}
		}
	}

	return &doc, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
