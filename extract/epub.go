package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/chapterwise/chapterwise"
)

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDoc struct {
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type ncx struct {
	NavPoints []navPoint `xml:"navMap>navPoint"`
}

type navPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

func epubChapters(epubPath string) ([]Chapter, error) {
	zr, err := zip.OpenReader(epubPath)
	if err != nil {
		return nil, &chapterwise.ExtractError{Format: "epub", Message: "opening archive", Cause: err}
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return nil, err
	}
	opfDir := path.Dir(opfPath)

	var pkg packageDoc
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return nil, err
	}

	itemHref := make(map[string]string)
	itemType := make(map[string]string)
	ncxHref := ""
	for _, item := range pkg.Manifest.Items {
		itemHref[item.ID] = item.Href
		itemType[item.ID] = item.MediaType
		if item.MediaType == "application/x-dtbncx+xml" || item.ID == pkg.Spine.Toc {
			ncxHref = item.Href
		}
	}

	titles := map[string]string{}
	if ncxHref != "" {
		var toc ncx
		if err := decodeXML(files, joinHref(opfDir, ncxHref), &toc); err == nil {
			collectTitles(toc.NavPoints, titles)
		}
	}

	var chapters []Chapter
	idx := 1
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := itemHref[ref.IDRef]
		if !ok {
			continue
		}
		mediaType := itemType[ref.IDRef]
		if mediaType != "application/xhtml+xml" && mediaType != "text/html" {
			continue
		}

		f, ok := files[joinHref(opfDir, href)]
		if !ok {
			continue
		}

		text, err := documentText(f)
		if err != nil {
			return nil, err
		}

		title, ok := titles[href]
		if !ok {
			title = fmt.Sprintf("Chapter %d", idx)
		}
		idx++

		chapters = append(chapters, Chapter{Title: title, Text: text})
	}

	if len(chapters) == 0 {
		return nil, &chapterwise.ExtractError{Format: "epub", Message: "no readable chapters in " + epubPath}
	}
	return chapters, nil
}

func rootfilePath(files map[string]*zip.File) (string, error) {
	var c container
	if err := decodeXML(files, "META-INF/container.xml", &c); err != nil {
		return "", err
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return "", &chapterwise.ExtractError{Format: "epub", Message: "container.xml names no rootfile"}
	}
	return c.Rootfiles[0].FullPath, nil
}

func decodeXML(files map[string]*zip.File, name string, v interface{}) error {
	f, ok := files[name]
	if !ok {
		return &chapterwise.ExtractError{Format: "epub", Message: "missing " + name}
	}
	rc, err := f.Open()
	if err != nil {
		return &chapterwise.ExtractError{Format: "epub", Message: "opening " + name, Cause: err}
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return &chapterwise.ExtractError{Format: "epub", Message: "parsing " + name, Cause: err}
	}
	return nil
}

func collectTitles(points []navPoint, out map[string]string) {
	for _, p := range points {
		href, _, _ := strings.Cut(p.Content.Src, "#")
		if href != "" {
			if _, seen := out[href]; !seen {
				out[href] = strings.TrimSpace(p.Label.Text)
			}
		}
		collectTitles(p.Children, out)
	}
}

// documentText extracts the visible text of an XHTML chapter, separating
// block elements with newlines the way the sentence segmenter expects.
func documentText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", &chapterwise.ExtractError{Format: "epub", Message: "opening " + f.Name, Cause: err}
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return "", &chapterwise.ExtractError{Format: "epub", Message: "parsing " + f.Name, Cause: err}
	}

	var b strings.Builder
	for _, n := range doc.Selection.Nodes {
		nodeText(n, &b)
	}
	return strings.TrimLeft(collapseNewlines(b.String()), "\n \t"), nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true,
}

func nodeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
		if blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodeText(c, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}

func collapseNewlines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

func joinHref(dir, href string) string {
	if dir == "." || dir == "" {
		return href
	}
	return path.Join(dir, href)
}
