// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

// Package page holds the data model of an HTML page and renders it with
// one of the loaded templates.
package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/iliafrenkel/go-pastes/src/service"
	"github.com/iliafrenkel/go-pastes/src/store"
)

// Page type represent a single HTML page with all the data that any page
// might need. Most pages won't need all of the data options. Use Data
// functions defined below to add data to the page.
type Page struct {
	// common for all pages
	Title   string // page title, used a value for the <title> tag
	Brand   string // text displayed in big letters at the top of each page
	Tagline string // text displayed below the Brand
	Version string // application version to show at the bottom of every page
	Total   int    // total number of pastes

	// not common for all pages
	Pastes []store.Paste        // a list of pastes
	Paste  store.Paste          // a single paste
	Form   service.PasteRequest // values of the new paste form
	Query  string               // search query

	// only for error pages
	ErrorCode    int    // error code, to show on the error page (404, 500, etc.)
	ErrorText    string // error text, friendly text to accompany the error code
	ErrorMessage string // optional error message to help the user with what to do next

	// for internal use
	templates *template.Template // all the loaded templates from the server
	template  string             // template name to generate HTML
}

// Data func type.
type Data func(p *Page)

// Title sets page title.
func Title(title string) Data {
	return func(p *Page) {
		p.Title = title
	}
}

// Brand sets page brand.
func Brand(brand string) Data {
	return func(p *Page) {
		p.Brand = brand
	}
}

// Tagline sets page brand.
func Tagline(tagline string) Data {
	return func(p *Page) {
		p.Tagline = tagline
	}
}

// Version sets page version.
func Version(version string) Data {
	return func(p *Page) {
		p.Version = version
	}
}

// Total sets the total number of pastes.
func Total(total int) Data {
	return func(p *Page) {
		p.Total = total
	}
}

// Pastes sets a list of pastes.
func Pastes(pastes []store.Paste) Data {
	return func(p *Page) {
		p.Pastes = pastes
	}
}

// Paste sets a single paste.
func Paste(paste store.Paste) Data {
	return func(p *Page) {
		p.Paste = paste
	}
}

// Form sets the values to pre-fill the new paste form with.
func Form(form service.PasteRequest) Data {
	return func(p *Page) {
		p.Form = form
	}
}

// Query sets the search query.
func Query(q string) Data {
	return func(p *Page) {
		p.Query = q
	}
}

// ErrorCode sets error code for the error page.
func ErrorCode(code int) Data {
	return func(p *Page) {
		p.ErrorCode = code
	}
}

// ErrorText sets error text for the error page.
func ErrorText(txt string) Data {
	return func(p *Page) {
		p.ErrorText = txt
	}
}

// ErrorMessage sets error message for the error page.
func ErrorMessage(msg string) Data {
	return func(p *Page) {
		p.ErrorMessage = msg
	}
}

// Template sets the template name for the page.
func Template(name string) Data {
	return func(p *Page) {
		p.template = name
	}
}

// New returns a new page.
func New(t *template.Template, data ...Data) *Page {
	p := Page{
		templates: t,
	}
	for _, d := range data {
		d(&p)
	}

	return &p
}

// Show renders the template with the page data and writes resulting HTML.
// Nothing is written if the template fails.
func (p *Page) Show(w io.Writer) error {
	var html bytes.Buffer
	err := p.templates.ExecuteTemplate(&html, p.template, p)
	if err != nil {
		return fmt.Errorf("error executing template: %w", err)
	}

	_, err = w.Write(html.Bytes())
	return err
}
