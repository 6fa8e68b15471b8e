package pdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// fileDocument reads pages through ledongthuc and the whole document
// through pdfcpu's content streams.
type fileDocument struct {
	path   string
	file   *os.File
	reader *pdf.Reader
}

func openDocument(path string) (document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileDocument{path: path, file: f, reader: r}, nil
}

func (d *fileDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *fileDocument) PageText(i int) (string, error) {
	page := d.reader.Page(i)
	if page.V.IsNull() {
		return "", errors.New("page not found")
	}
	return page.GetPlainText(nil)
}

func (d *fileDocument) PlainText() (string, error) {
	var text string
	err := withContext(d.path, model.EXTRACTCONTENT, func(ctx *model.Context) error {
		var err error
		text, err = contentText(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("extracting content text: %w", err)
	}
	return text, nil
}

func (d *fileDocument) Close() error {
	return d.file.Close()
}

// readDocumentInfo reads Title and Author from the information dictionary.
func readDocumentInfo(path string) (title, author string, err error) {
	err = withContext(path, model.VALIDATE, func(ctx *model.Context) error {
		title, author = ctx.Title, ctx.Author
		return nil
	})
	return title, author, err
}

// withContext reads and validates the PDF at path in relaxed mode and
// passes the result to fn. Parser panics are returned as errors.
func withContext(path string, cmd model.CommandMode, fn func(*model.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.Cmd = cmd

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return fmt.Errorf("reading context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("validating: %w", err)
	}
	return fn(ctx)
}
