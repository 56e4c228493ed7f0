package extract

import (
	"archive/zip"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/chapterwise/chapterwise"
)

// WriteEPUB writes translated chapters to a new EPUB at output. titles maps
// original chapter titles to translated ones; chapters missing from it keep
// their original title. lang sets the document language and text direction.
func WriteEPUB(output string, bookTitle string, chapters []Chapter, titles map[string]string, lang string) error {
	f, err := os.Create(output)
	if err != nil {
		return &chapterwise.ExtractError{Format: "epub", Message: "creating output", Cause: err}
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	// mimetype must come first and uncompressed.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return wrapWrite(err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		return wrapWrite(err)
	}

	if err := writeEntry(zw, "META-INF/container.xml", containerXML); err != nil {
		return err
	}

	dir := chapterwise.Direction(lang)
	if lang == "" {
		lang = "en"
	}

	type chapterFile struct {
		name  string
		title string
	}
	chapterFiles := make([]chapterFile, 0, len(chapters))

	for i, ch := range chapters {
		title := ch.Title
		if t, ok := titles[ch.Title]; ok && t != "" {
			title = t
		}

		name := fmt.Sprintf("chap_%d.xhtml", i+1)
		body := html.EscapeString(ch.Text)
		body = strings.ReplaceAll(body, "\n", "<br/>")

		content := fmt.Sprintf(chapterXHTML, lang, dir, html.EscapeString(title), html.EscapeString(title), body)
		if err := writeEntry(zw, "OEBPS/"+name, content); err != nil {
			return err
		}

		chapterFiles = append(chapterFiles, chapterFile{name: name, title: title})
	}

	var manifest, spine, navPoints strings.Builder
	manifest.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
	for i, cf := range chapterFiles {
		id := fmt.Sprintf("chap%d", i+1)
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=\"application/xhtml+xml\"/>\n", id, cf.name)
		fmt.Fprintf(&spine, "    <itemref idref=%q/>\n", id)
		fmt.Fprintf(&navPoints, navPointXML, id, i+1, html.EscapeString(cf.title), cf.name)
	}

	opf := fmt.Sprintf(packageOPF, html.EscapeString(bookTitle), lang, manifest.String(), spine.String())
	if err := writeEntry(zw, "OEBPS/content.opf", opf); err != nil {
		return err
	}

	tocNCX := fmt.Sprintf(tocNCXTemplate, html.EscapeString(bookTitle), navPoints.String())
	if err := writeEntry(zw, "OEBPS/toc.ncx", tocNCX); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return wrapWrite(err)
	}
	return f.Close()
}

// DefaultBookTitle derives an export title from the source book path.
func DefaultBookTitle(bookPath string) string {
	return strings.TrimSuffix(filepath.Base(bookPath), filepath.Ext(bookPath))
}

func writeEntry(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return wrapWrite(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		return wrapWrite(err)
	}
	return nil
}

func wrapWrite(err error) error {
	return &chapterwise.ExtractError{Format: "epub", Message: "writing archive", Cause: err}
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const packageOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="bookid">chapterwise-export</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:language>%s</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine toc="ncx">
%s  </spine>
</package>
`

const tocNCXTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="chapterwise-export"/>
  </head>
  <docTitle><text>%s</text></docTitle>
  <navMap>
%s  </navMap>
</ncx>
`

const navPointXML = `    <navPoint id="%s" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src="%s"/>
    </navPoint>
`

const chapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="%s" dir="%s">
  <head><title>%s</title></head>
  <body>
    <h1>%s</h1>
    <p>%s</p>
  </body>
</html>
`
