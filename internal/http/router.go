package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Meetings   *MeetingHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Meetings != nil {
		mux.HandleFunc("/meetings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Meetings.List(w, r)
			case http.MethodPost:
				cfg.Meetings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/meetings/")
			segments := splitPath(rest)
			if len(segments) == 0 {
				http.NotFound(w, r)
				return
			}

			meetingID, err := strconv.ParseInt(segments[0], 10, 64)
			if err != nil || meetingID <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithMeetingID(r.Context(), meetingID))

			switch {
			case len(segments) == 1:
				switch r.Method {
				case http.MethodGet:
					cfg.Meetings.Get(w, r)
				case http.MethodDelete:
					cfg.Meetings.Cancel(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodDelete)
				}
			case len(segments) == 2 && segments[1] == "start":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Meetings.Reschedule(w, r)
			case len(segments) == 2 && segments[1] == "registrations":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Meetings.Register(w, r)
			case len(segments) == 3 && segments[1] == "registrations":
				userID, err := strconv.ParseInt(segments[2], 10, 64)
				if err != nil || userID <= 0 {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Meetings.Unregister(w, r, userID)
			default:
				http.NotFound(w, r)
			}
		})

		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/users/")
			segments := splitPath(rest)
			if len(segments) != 2 || segments[1] != "meetings" {
				http.NotFound(w, r)
				return
			}

			userID, err := strconv.ParseInt(segments[0], 10, 64)
			if err != nil || userID <= 0 {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Meetings.ListForUser(w, r, userID)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
