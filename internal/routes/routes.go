package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"riceinspector/internal/config"
	"riceinspector/internal/handler"
	"riceinspector/internal/logger"
	"riceinspector/internal/middleware"
	"riceinspector/internal/repository"
	"riceinspector/internal/service/websocket"
)

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(inspector handler.Inspector, hub *websocket.HubService, reportRepo repository.ReportRepository,
	grainRepo repository.GrainRepository, images handler.ImageResolver, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Live inspection
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, log))
	mux.HandleFunc("/api/live", handler.LiveHandler(inspector, log))
	mux.HandleFunc("/api/control/save", handler.SaveHandler(inspector, log))
	mux.HandleFunc("/api/control/quit", handler.QuitHandler(inspector, log))

	// Report history
	mux.HandleFunc("/api/reports", handler.GetReportsHandler(log, reportRepo))
	mux.HandleFunc("/api/reports/grains", handler.GetReportGrainsHandler(log, grainRepo))
	mux.HandleFunc("/api/reports/view", handler.ViewReportImageHandler(images))
	mux.HandleFunc("/api/reports/delete", handler.DeleteReportHandler(log, reportRepo, grainRepo, images))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(cfg, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /reports -> /static/reports.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
