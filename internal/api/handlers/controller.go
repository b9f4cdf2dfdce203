package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pingball/backend/internal/game"
)

// ControllerTemplate is the phone controller page. Register it with
// router.SetHTMLTemplate before serving BoardController.
var ControllerTemplate = template.Must(template.New("controller").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Board}} controller</title>
<style>
body { font-family: sans-serif; margin: 1rem; }
button { display: block; width: 100%; margin: 0.5rem 0; padding: 1.5rem; font-size: 1.5rem; touch-action: none; }
</style>
</head>
<body>
<h1>{{.Board}}</h1>
{{range .Keys}}<button data-key="{{.}}">{{.}}</button>
{{else}}<p>This board has no key bindings.</p>
{{end}}
<script>
document.querySelectorAll("button[data-key]").forEach(function (b) {
  var send = function (phase) {
    fetch("keys/" + encodeURIComponent(b.dataset.key) + "/" + phase, { method: "POST" });
  };
  b.addEventListener("pointerdown", function () { send("down"); });
  b.addEventListener("pointerup", function () { send("up"); });
});
</script>
</body>
</html>
`))

// controllerURL is where the QR code sends a phone.
func controllerURL(publicURL string) string {
	return strings.TrimRight(publicURL, "/") + "/api/v1/board/controller"
}

// BoardController serves a page with one button per bound key. Pressing and
// releasing a button posts the key down and up events.
func BoardController(board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "controller", gin.H{
			"Board": board.Name(),
			"Keys":  board.Keys(),
		})
	}
}
