// Package pptx reads the slide and shape structure of Office Open XML presentations.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrInvalidPresentation is wrapped by every error caused by a malformed or unreadable document.
var ErrInvalidPresentation = errors.New("invalid presentation document")

const (
	relationshipsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = relationshipsNS + "/officeDocument"
	relTypeSlide          = relationshipsNS + "/slide"

	defaultPresentationPart = "ppt/presentation.xml"
)

// maxPartSize caps a single decompressed part so a zip bomb cannot exhaust memory.
const maxPartSize = 50 << 20

// maxEntries caps the number of files in the archive.
const maxEntries = 10000

// Open reads a presentation from disk.
func Open(filename string) (*Presentation, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open presentation: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat presentation: %w", err)
	}
	return ReadFrom(f, info.Size())
}

// ReadFrom reads a presentation from an io.ReaderAt of the given size.
func ReadFrom(r io.ReaderAt, size int64) (*Presentation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidPresentation)
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresentation, err)
	}
	if len(zr.File) > maxEntries {
		return nil, fmt.Errorf("%w: archive contains too many entries (%d > %d)", ErrInvalidPresentation, len(zr.File), maxEntries)
	}

	pkg := &pkgReader{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		pkg.files[f.Name] = f
	}
	return pkg.readPresentation()
}

// pkgReader resolves parts and relationships inside one zip package.
type pkgReader struct {
	files map[string]*zip.File
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationshipList struct {
	Relationships []relationship `xml:"Relationship"`
}

func (p *pkgReader) readPart(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part not found: %s", name)
	}
	if f.UncompressedSize64 > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds maximum size (%d bytes)", name, maxPartSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds maximum size (%d bytes)", name, maxPartSize)
	}
	return data, nil
}

// decodePart parses an XML part into a generic, order-preserving element tree.
func (p *pkgReader) decodePart(name string) (*node, error) {
	data, err := p.readPart(name)
	if err != nil {
		return nil, err
	}
	return decodeXML(data)
}

func decodeXML(data []byte) (*node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	var root node
	if err := decoder.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// relsPartFor returns the relationships part that belongs to a part, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPartFor(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// readRels returns the relationships of a part keyed by id. A missing rels part is not an error.
func (p *pkgReader) readRels(part string) (map[string]relationship, error) {
	relsPart := relsPartFor(part)
	if _, ok := p.files[relsPart]; !ok {
		return map[string]relationship{}, nil
	}
	data, err := p.readPart(relsPart)
	if err != nil {
		return nil, err
	}
	var list relationshipList
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", relsPart, err)
	}
	rels := make(map[string]relationship, len(list.Relationships))
	for _, rel := range list.Relationships {
		rels[rel.ID] = rel
	}
	return rels, nil
}

// resolveTarget turns a relationship target into a zip path relative to the source part.
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(sourcePart), target)
}

func (p *pkgReader) presentationPart() string {
	rels, err := p.readRels("")
	if err != nil {
		return defaultPresentationPart
	}
	for _, rel := range rels {
		if rel.Type == relTypeOfficeDocument {
			return resolveTarget("", rel.Target)
		}
	}
	return defaultPresentationPart
}

func (p *pkgReader) readPresentation() (*Presentation, error) {
	presPart := p.presentationPart()
	root, err := p.decodePart(presPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresentation, err)
	}
	if root.local() != "presentation" {
		return nil, fmt.Errorf("%w: %s is not a presentation part", ErrInvalidPresentation, presPart)
	}

	rels, err := p.readRels(presPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresentation, err)
	}

	pres := &Presentation{}
	for _, sldID := range root.child("sldIdLst").children("sldId") {
		rel, ok := rels[sldID.relAttr("id")]
		if !ok || rel.Type != relTypeSlide {
			continue
		}
		slidePart := resolveTarget(presPart, rel.Target)
		slide, err := p.readSlide(slidePart, len(pres.Slides))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read slide %s: %w", ErrInvalidPresentation, slidePart, err)
		}
		pres.Slides = append(pres.Slides, slide)
	}
	return pres, nil
}
