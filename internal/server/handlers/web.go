package handlers

import (
	"html/template"
	"net/http"

	"github.com/restaurantlens/restaurantlens/pkg/logger"
)

// WebHandler handles web UI requests
type WebHandler struct {
	logger   *logger.Logger
	template *template.Template
}

// NewWebHandler creates a new web handler
func NewWebHandler(templateGlob string, log *logger.Logger) *WebHandler {
	if log == nil {
		log = logger.GetDefault()
	}

	handler := &WebHandler{
		logger: log.WithComponent("web"),
	}

	handler.loadTemplates(templateGlob)

	return handler
}

// loadTemplates loads and parses HTML templates
func (h *WebHandler) loadTemplates(glob string) {
	if glob == "" {
		glob = "web/templates/*.html"
	}
	tmpl, err := template.ParseGlob(glob)
	if err != nil {
		h.logger.WithField("error", err).Warn("Failed to load web templates, using fallback")
		h.template = nil
		return
	}
	h.template = tmpl
}

// HomeHandler serves the upload and summary page
func (h *WebHandler) HomeHandler() http.HandlerFunc {
	return h.pageHandler("home.html", "RestaurantLens", fallbackHome)
}

// ChatHandler serves the question answering page
func (h *WebHandler) ChatHandler() http.HandlerFunc {
	return h.pageHandler("chat.html", "Ask about the reviews", fallbackChat)
}

// RestaurantsHandler serves the restaurant browse page
func (h *WebHandler) RestaurantsHandler() http.HandlerFunc {
	return h.pageHandler("restaurants.html", "Restaurants", fallbackRestaurants)
}

func (h *WebHandler) pageHandler(name, title, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if h.template != nil && h.template.Lookup(name) != nil {
			data := map[string]interface{}{
				"Title":   title,
				"Version": "1.0.0",
			}
			if err := h.template.ExecuteTemplate(w, name, data); err != nil {
				h.logger.WithField("error", err).Error("Failed to execute template " + name)
			}
			return
		}

		w.Write([]byte(fallback))
	}
}

const fallbackHome = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>RestaurantLens</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 900px; margin: 0 auto; }
        .card { background: white; padding: 20px; margin-bottom: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { padding: 10px 20px; background: #2563eb; color: white; border: none; border-radius: 4px; cursor: pointer; }
        nav a { margin-right: 15px; color: #2563eb; text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <h1>RestaurantLens</h1>
            <p>Customer review sentiment analysis and question answering.</p>
            <nav><a href="/">Home</a><a href="/chat">Chat</a><a href="/restaurants">Restaurants</a></nav>
        </div>
        <div class="card">
            <h2>Upload reviews</h2>
            <form id="upload-form" enctype="multipart/form-data">
                <input type="file" name="file" accept=".csv" required>
                <button class="btn" type="submit">Upload</button>
            </form>
            <pre id="upload-result"></pre>
        </div>
        <div class="card">
            <h2>Summary</h2>
            <pre id="summary"></pre>
        </div>
    </div>
    <script>
        document.getElementById('upload-form').addEventListener('submit', async (e) => {
            e.preventDefault();
            const res = await fetch('/api/v1/reviews/upload', { method: 'POST', body: new FormData(e.target) });
            document.getElementById('upload-result').textContent = JSON.stringify(await res.json(), null, 2);
            loadSummary();
        });
        async function loadSummary() {
            const res = await fetch('/api/v1/reviews/summary');
            document.getElementById('summary').textContent = JSON.stringify(await res.json(), null, 2);
        }
        loadSummary();
    </script>
</body>
</html>`

const fallbackChat = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>RestaurantLens Chat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 900px; margin: 0 auto; }
        .card { background: white; padding: 20px; margin-bottom: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { padding: 10px 20px; background: #2563eb; color: white; border: none; border-radius: 4px; cursor: pointer; }
        input[type=text] { width: 70%; padding: 10px; }
        nav a { margin-right: 15px; color: #2563eb; text-decoration: none; }
        .source { border-left: 3px solid #2563eb; padding-left: 10px; margin: 10px 0; color: #444; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <h1>Ask about the reviews</h1>
            <nav><a href="/">Home</a><a href="/chat">Chat</a><a href="/restaurants">Restaurants</a></nav>
        </div>
        <div class="card">
            <form id="ask-form">
                <input type="text" name="question" placeholder="How is the pizza?" required>
                <button class="btn" type="submit">Ask</button>
            </form>
            <div id="answer"></div>
            <div id="sources"></div>
        </div>
    </div>
    <script>
        document.getElementById('ask-form').addEventListener('submit', async (e) => {
            e.preventDefault();
            const question = e.target.question.value;
            document.getElementById('answer').textContent = 'Thinking...';
            const res = await fetch('/api/v1/query', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ question })
            });
            const body = await res.json();
            if (!body.success) {
                document.getElementById('answer').textContent = body.error.message + (body.error.hint ? ' (' + body.error.hint + ')' : '');
                return;
            }
            document.getElementById('answer').textContent = body.data.text;
            document.getElementById('sources').innerHTML = body.data.sources
                .map(s => '<div class="source">[' + (s.sentiment || 'Unrated') + '] ' + s.content + '</div>').join('');
        });
    </script>
</body>
</html>`

const fallbackRestaurants = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Restaurants</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 900px; margin: 0 auto; }
        .card { background: white; padding: 20px; margin-bottom: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        nav a { margin-right: 15px; color: #2563eb; text-decoration: none; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <h1>Restaurants</h1>
            <nav><a href="/">Home</a><a href="/chat">Chat</a><a href="/restaurants">Restaurants</a></nav>
        </div>
        <div class="card">
            <table>
                <thead><tr><th>Name</th><th>Cuisine</th><th>City</th><th>Rating</th></tr></thead>
                <tbody id="rows"></tbody>
            </table>
        </div>
    </div>
    <script>
        fetch('/api/v1/restaurants').then(r => r.json()).then(body => {
            document.getElementById('rows').innerHTML = (body.data || [])
                .map(r => '<tr><td>' + r.name + '</td><td>' + r.cuisine + '</td><td>' + r.city + '</td><td>' + r.rating + '</td></tr>').join('');
        });
    </script>
</body>
</html>`
