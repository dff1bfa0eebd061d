package preview

import (
	"html/template"
	"log"
	"net/http"

	"github.com/livefir/docpreview"
)

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Type}} preview</title>
<style>
body { margin: 0; display: flex; height: 100vh; font-family: sans-serif; }
#editor { width: 40%; display: flex; flex-direction: column; padding: 8px; gap: 8px; box-sizing: border-box; }
#editor textarea { flex: 1; font-family: monospace; }
#preview { flex: 1; border: 0; border-left: 1px solid #ccc; }
#status { font-size: 12px; color: #666; }
</style>
</head>
<body>
<div id="editor">
<div>
{{range .Snippets}}<button data-snippet="{{.}}">{{.}}</button> {{end}}
</div>
<div>
<select id="pageMode"><option value="fluid">fluid</option><option value="fixed">fixed</option></select>
<select id="orientation"><option value="portrait">portrait</option><option value="landscape">landscape</option></select>
<select id="direction"><option value="ltr">ltr</option><option value="rtl">rtl</option></select>
<a href="/export/html">HTML</a>
<a href="#" id="exportPdf">PDF</a>
</div>
<textarea id="html">{{.Template.HTML}}</textarea>
<textarea id="css">{{.Template.CSS}}</textarea>
<div id="status"></div>
</div>
<iframe id="preview"></iframe>
<script>
(function () {
  var frame = document.getElementById("preview");
  var status = document.getElementById("status");
  var html = document.getElementById("html");
  var css = document.getElementById("css");
  var last = 0;

  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function (ev) {
      var u = JSON.parse(ev.data);
      if (u.generation <= last) { return; }
      last = u.generation;
      frame.srcdoc = u.document;
      status.textContent = u.error ? u.error : "generation " + u.generation;
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }

  function put(path, body) {
    return fetch(path, { method: "PUT", headers: { "Content-Type": "application/json" }, body: JSON.stringify(body) });
  }

  function sendTemplate() { put("/template", { html: html.value, css: css.value }); }
  html.addEventListener("input", sendTemplate);
  css.addEventListener("input", sendTemplate);

  ["pageMode", "orientation", "direction"].forEach(function (id) {
    document.getElementById(id).addEventListener("change", function () {
      put("/options", {
        pageMode: document.getElementById("pageMode").value,
        orientation: document.getElementById("orientation").value,
        direction: document.getElementById("direction").value
      });
    });
  });

  document.querySelectorAll("[data-snippet]").forEach(function (b) {
    b.addEventListener("click", function () {
      fetch("/snippets/" + b.dataset.snippet, { method: "POST" }).then(function () {
        return fetch("/snippets");
      }).then(function (r) { return r.json(); }).then(function (defs) {
        defs.forEach(function (d) {
          if (d.name !== b.dataset.snippet) { return; }
          var target = d.target === "css" ? css : html;
          target.value += d.text;
        });
      });
    });
  });

  document.getElementById("exportPdf").addEventListener("click", function (ev) {
    ev.preventDefault();
    fetch("/export/pdf").then(function (r) {
      if (r.status === 202) {
        return r.json().then(function (n) { window.open(n.print); });
      }
      if (!r.ok) { return r.json().then(function (e) { status.textContent = e.error; }); }
      return r.blob().then(function (b) {
        var a = document.createElement("a");
        a.href = URL.createObjectURL(b);
        a.download = "{{.Filename}}";
        a.click();
      });
    });
  });

  connect();
})();
</script>
</body>
</html>
`))

type shellData struct {
	Type     docpreview.Type
	Filename string
	Template docpreview.Template
	Snippets []string
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	data := shellData{
		Type:     s.docType,
		Filename: s.docType.PreviewFilename("pdf"),
		Template: s.pipeline.Inputs().Template,
		Snippets: docpreview.Snippets(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTemplate.Execute(w, data); err != nil {
		log.Printf("Failed to render editor shell: %v", err)
	}
}
