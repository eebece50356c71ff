package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

const maxHeadingLevel = 6

var htmlFuncs = template.FuncMap{
	"heading": func(level int, text string) template.HTML {
		level = min(level, maxHeadingLevel)
		return template.HTML(fmt.Sprintf("<h%d>%s</h%d>", level, template.HTMLEscapeString(text), level))
	},
}

var keyTemplate = template.Must(template.New("key").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{template "region" .}}
</body>
</html>
{{define "region"}}{{range .Rooms}}<article id="room-{{.Key}}">
{{heading .Level .Heading}}
{{if .Description}}<p>{{.Description}}</p>
{{end}}{{if .Objects}}<ul>
{{range .Objects}}<li>{{.Name}}{{if .Description}}<br>{{.Description}}{{end}}</li>
{{end}}</ul>
{{end}}{{if .Exits}}<p>Exits: {{range $i, $e := .Exits}}{{if $i}}, {{end}}<a href="#room-{{$e.Target}}">{{$e.Target}}</a>{{if $e.Tag}} ({{$e.Tag}}){{end}}{{end}}</p>
{{end}}</article>
{{end}}{{range .Regions}}<section>
{{heading .Level .Title}}
{{template "region" .}}</section>
{{end}}{{end}}`))

type htmlRegion struct {
	Title   string
	Level   int
	Rooms   []htmlRoom
	Regions []htmlRegion
}

type htmlRoom struct {
	Key         dungeon.Key
	Heading     string
	Level       int
	Description string
	Objects     []dungeon.Item
	Exits       []dungeon.Exit
}

func buildHTMLRegion(n *dungeon.Node, level int) htmlRegion {
	r := htmlRegion{Title: n.Label(), Level: level}
	for _, room := range n.LocalRooms() {
		heading := fmt.Sprintf("%s.", room.Key())
		if room.Name() != "" {
			heading += " " + room.Name()
		}
		r.Rooms = append(r.Rooms, htmlRoom{
			Key:         room.Key(),
			Heading:     heading,
			Level:       level + 1,
			Description: room.Description(),
			Objects:     room.Objects(),
			Exits:       room.Exits(),
		})
	}
	for _, child := range n.Regions() {
		r.Regions = append(r.Regions, buildHTMLRegion(child, level+1))
	}
	return r
}

// WriteHTML writes the key as an HTML document: the dungeon title as the
// page heading and one section per region, nested as the regions are.
//
// Postcondition: Returns nil, a *dungeon.DuplicateKeyError, or a write error.
func WriteHTML(w io.Writer, root *dungeon.Node) error {
	if _, err := root.RoomsByKey(); err != nil {
		return err
	}
	if err := keyTemplate.Execute(w, buildHTMLRegion(root, 1)); err != nil {
		return fmt.Errorf("rendering html key: %w", err)
	}
	return nil
}
