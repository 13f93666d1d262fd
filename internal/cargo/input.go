package cargo

import (
	"encoding/base64"
	"path/filepath"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/spreadsheet"
)

type InputKind int

const (
	KindText InputKind = iota + 1
	KindImage
	KindSpreadsheet
	KindRows
	KindItems
)

func (k InputKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindRows:
		return "rows"
	case KindItems:
		return "items"
	default:
		return "unknown"
	}
}

// Row is one loosely typed record as supplied by a caller, keyed by field
// name (description, quantity, length, ...).
type Row map[string]any

// Input carries exactly one payload, selected by Kind. Build it with the
// constructors below rather than by hand.
type Input struct {
	Kind     InputKind
	Text     string
	Image    string
	MIMEType string
	Data     []byte
	Filename string
	Rows     []Row
	Items    []models.CargoItem
}

func TextInput(text string) Input {
	return Input{Kind: KindText, Text: text}
}

// ImageInput accepts either a data URL or bare base64 with its MIME type.
func ImageInput(image, mimeType string) Input {
	return Input{Kind: KindImage, Image: image, MIMEType: mimeType}
}

func SpreadsheetInput(data []byte, filename string) Input {
	return Input{Kind: KindSpreadsheet, Data: data, Filename: filename}
}

func RowsInput(rows []Row) Input {
	return Input{Kind: KindRows, Rows: rows}
}

func ItemsInput(items []models.CargoItem) Input {
	return Input{Kind: KindItems, Items: items}
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
	"image/gif":  true,
}

// FileInput classifies an uploaded file by extension and content type.
// PDFs are converted to text here so they follow the text path.
func FileInput(data []byte, filename, contentType string) (Input, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))

	switch {
	case spreadsheet.Supported(filename):
		return SpreadsheetInput(data, filename), nil
	case ext == ".pdf" || mime == "application/pdf":
		text, err := spreadsheet.ExtractPDFText(data)
		if err != nil {
			return Input{}, err
		}
		in := TextInput(text)
		in.Filename = filename
		return in, nil
	case imageTypes[mime]:
		in := ImageInput(base64.StdEncoding.EncodeToString(data), mime)
		in.Filename = filename
		return in, nil
	}

	if byExt := imageMIMEFromExt(ext); byExt != "" {
		in := ImageInput(base64.StdEncoding.EncodeToString(data), byExt)
		in.Filename = filename
		return in, nil
	}
	named := mime
	if named == "" || named == "application/octet-stream" {
		named = ext
	}
	if named == "" {
		named = filename
	}
	return Input{}, UnsupportedTypeError{Type: named}
}

func imageMIMEFromExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return ""
}

// dataURL normalizes an image payload and reports its MIME type.
func dataURL(image, mimeType string) (string, string) {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "data:") {
		if semi := strings.IndexByte(image, ';'); semi > len("data:") {
			declared := strings.ToLower(image[len("data:"):semi])
			if mimeType == "" {
				mimeType = declared
			}
		}
		return image, strings.ToLower(mimeType)
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return "data:" + mimeType + ";base64," + image, mimeType
}
