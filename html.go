package svgmin

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
)

// previewPage renders the result the way the tool page shows it: the active
// svg inline, the same image as a CSS background, and the size stats.
// Both copies have their executable content stripped, even when the
// optimizer did not run. The CSS declaration goes into <style> raw; its
// payload is percent-encoded so it cannot close the element.
func previewPage(res *Result) []byte {
	var buf bytes.Buffer
	safe := StripExecutable(res.Active)

	buf.WriteString(`<!doctype html>
<html>
<head>
	<meta charset="utf-8">
	<title>SVG preview</title>
	<style>
		.preview { display: flex; gap: 2rem; align-items: center; }
		.tile { width: 160px; height: 160px; border: 1px solid #ddd; }
		.background { background-repeat: no-repeat; background-position: center; background-size: contain; }
		.background { ` + URLEncodeCSS(safe) + ` }
	</style>
</head>
<body>`)

	if !res.Report.IsValid {
		buf.WriteString(`<p class="error">` + html.EscapeString(res.Report.Error) + `</p>`)
	} else {
		buf.WriteString(`<div class="preview">
	<div class="tile inline">` + safe + `</div>
	<div class="tile background"></div>
</div>`)
		fmt.Fprintf(&buf, `<p class="stats">%d bytes → %d bytes (%.2f%% smaller, %s)</p>`,
			res.Stats.OriginalSizeBytes, res.Stats.OptimizedSizeBytes, res.Stats.ReductionPercent, res.Settings.Level)
		if res.Notice != "" {
			buf.WriteString(`<p class="notice">` + html.EscapeString(res.Notice) + `</p>`)
		}
		for _, warn := range res.Report.Warnings {
			buf.WriteString(`<p class="warning">` + html.EscapeString(warn) + `</p>`)
		}
	}

	buf.WriteString(`
</body>
</html>`)
	return buf.Bytes()
}

func (h *Handler) servePreview(w http.ResponseWriter, r *http.Request) {
	res, ok := h.processRequest(w, r)
	if !ok {
		return
	}
	page := previewPage(res)
	if minified, err := h.min.Bytes(htmlMediaType, page); err == nil {
		page = minified
	} else {
		h.log.Debug("preview left unminified", "err", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if !res.Report.IsValid {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_, _ = w.Write(page)
}
