// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"html/template"
	"net/http"

	"github.com/pdiddy/ghibli-studio/pkg/types"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Ghibli Image Generator</title>
{{- if .InFlight}}
<meta http-equiv="refresh" content="2">
{{- end}}
</head>
<body>
<h1>Ghibli Image Generator</h1>

<section>
<h2>Upload your image</h2>
<form action="/select" method="post" enctype="multipart/form-data">
<input type="file" name="image" accept="image/*" required>
<button type="submit">Select</button>
</form>
{{- with .State.Staged}}
<p><img src="/preview?id={{.ID}}" alt="Selected" height="256"></p>
<p>{{.Name}} ({{.MediaType}}, {{.Size}} bytes)</p>
{{- end}}
<form action="/convert" method="post">
<button type="submit"{{if not .State.CanConvert}} disabled{{end}}>
{{- if .InFlight}}Converting...{{else}}Convert to Ghibli Style{{end -}}
</button>
</form>
{{- with .State.Error}}
<p role="alert">{{.}}</p>
{{- end}}
</section>

<section>
<h2>Ghibli style result</h2>
{{- if .State.CanDownload}}
<p><img src="/result?id={{.State.Staged.ID}}" alt="Converted to Ghibli style" height="256"></p>
<p><a href="/download">Download Ghibli Image</a></p>
{{- else}}
<p>Your Ghibli-style image will appear here.</p>
{{- end}}
</section>
</body>
</html>
`))

type pageData struct {
	State    types.SessionState
	InFlight bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, pageData{State: st, InFlight: st.Status == types.StatusInFlight}); err != nil {
		s.logger.Error().Err(err).Msg("rendering page")
	}
}
