package handlers

import (
	"bytes"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/export"
	"github.com/k2nservice/console/internal/listing"
	"github.com/k2nservice/console/internal/service/pages"
)

func (h *Handler) page(c *gin.Context) (pages.Handle, bool) {
	page, ok := h.deps.Pages.Lookup(c.Param("page"))
	if !ok {
		h.NotFound(c)
	}
	return page, ok
}

// filterFromQuery reads q, from and to.
func filterFromQuery(c *gin.Context) (listing.Filter, error) {
	from, err := listing.ParseBound(c.Query("from"))
	if err != nil {
		return listing.Filter{}, err
	}
	to, err := listing.ParseBound(c.Query("to"))
	if err != nil {
		return listing.Filter{}, err
	}
	return listing.Filter{Search: strings.TrimSpace(c.Query("q")), From: from, To: to}, nil
}

// Mount reloads a page's collection and returns the filtered rows with
// their statistics. A failed reload still answers with the previous rows
// and a warning.
func (h *Handler) Mount(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := page.Mount(c.Request.Context(), filter)
	if err != nil {
		h.logger.Warn("page served from previous rows", zap.String("page", page.Slug()), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"page": page.Slug(), "title": page.Title(), "view": snapshot})
}

// Export writes the rows currently visible on a page.
func (h *Handler) Export(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows := page.VisibleRows()

	if format == export.FormatSheets {
		if h.deps.Sheets == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export Google Sheets non configuré"})
			return
		}
		written, err := h.deps.Sheets.Export(c.Request.Context(), page.Title(), rows)
		if err != nil {
			h.logger.Error("sheet export failed", zap.String("page", page.Slug()), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "export impossible"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rows": written, "sheet": page.Title()})
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, page.Title(), rows)
	} else {
		err = export.WriteCSV(&buf, rows)
	}
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+format.Filename(page.Slug())+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Form returns the page's draft.
func (h *Handler) Form(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

// fieldValues reads a JSON object or url-encoded form values as strings.
func fieldValues(c *gin.Context) (map[string]string, error) {
	values := make(map[string]string)
	if c.ContentType() == gin.MIMEJSON {
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for name, value := range raw {
			values[name] = cast.ToString(value)
		}
		return values, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for name, list := range c.Request.PostForm {
		if len(list) > 0 {
			values[name] = list[0]
		}
	}
	return values, nil
}

// UpdateForm assigns draft fields.
func (h *Handler) UpdateForm(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	values, err := fieldValues(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := page.SetFields(values); err != nil {
		h.fail(c, err, page.Draft())
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

// ResetForm empties the draft.
func (h *Handler) ResetForm(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	page.ResetDraft()
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

// SubmitForm validates the draft and creates the record. The created record
// heads the page's rows; the draft is echoed back on failure.
func (h *Handler) SubmitForm(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	record, err := page.Submit(c.Request.Context())
	if err != nil {
		h.fail(c, err, page.Draft())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": record, "draft": page.Draft(), "view": page.Current()})
}

// AddInstallment appends a blank installment to the draft.
func (h *Handler) AddInstallment(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	if err := page.AddInstallment(); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

func installmentIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index invalide"})
		return 0, false
	}
	return index, true
}

// UpdateInstallment edits the date and/or amount of one installment.
func (h *Handler) UpdateInstallment(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	index, ok := installmentIndex(c)
	if !ok {
		return
	}
	values, err := fieldValues(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	for _, field := range sortedKeys(values) {
		if err := page.SetInstallment(index, field, values[field]); err != nil {
			h.fail(c, err, page.Draft())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

// RemoveInstallment drops one installment.
func (h *Handler) RemoveInstallment(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	index, ok := installmentIndex(c)
	if !ok {
		return
	}
	if err := page.RemoveInstallment(index); err != nil {
		h.fail(c, err, page.Draft())
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": page.Draft()})
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
