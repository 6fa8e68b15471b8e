package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

var errNoPackage = errors.New("no package document")

// container is META-INF/container.xml.
type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packageDocument is the subset of the OPF package shelf reads.
type packageDocument struct {
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []string `xml:"creator"`
	} `xml:"metadata"`
	Manifest []manifestItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type manifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// isContent reports whether the item holds readable document text.
func (m manifestItem) isContent() bool {
	switch strings.ToLower(m.MediaType) {
	case "application/xhtml+xml", "text/html":
		return true
	case "":
		return isHTMLName(m.Href)
	default:
		return false
	}
}

// readPackage locates and parses the OPF package document. It returns the
// package and its path within the archive.
func readPackage(zr *zip.Reader) (*packageDocument, string, error) {
	opfPath, err := findPackagePath(zr)
	if err != nil {
		return nil, "", err
	}

	f, err := zr.Open(opfPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", opfPath, err)
	}
	defer f.Close()

	var pkg packageDocument
	if err := xml.NewDecoder(f).Decode(&pkg); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", opfPath, err)
	}
	return &pkg, opfPath, nil
}

// findPackagePath reads the rootfile from container.xml, falling back to
// the first .opf file in the archive.
func findPackagePath(zr *zip.Reader) (string, error) {
	if f, err := zr.Open(containerPath); err == nil {
		defer f.Close()
		var c container
		if err := xml.NewDecoder(f).Decode(&c); err == nil {
			for _, rf := range c.Rootfiles {
				if rf.FullPath != "" {
					return rf.FullPath, nil
				}
			}
		}
	}

	for _, f := range zr.File {
		if strings.EqualFold(path.Ext(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", errNoPackage
}

// resolveHref resolves a manifest href against the package document's directory.
func resolveHref(opfPath, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return path.Join(path.Dir(opfPath), href)
}

func isHTMLName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	default:
		return false
	}
}
