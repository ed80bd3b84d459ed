// Package v1 provides the REST handlers for the playground API.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kbh-legepladser/playground-api/internal/model"
	"github.com/kbh-legepladser/playground-api/internal/service"
)

// Routes holds the handler dependencies.
type Routes struct {
	svc service.Service
	log *zap.Logger
}

// Router builds the v1 route tree.
func Router(svc service.Service, log *zap.Logger) http.Handler {
	rr := &Routes{svc: svc, log: log}

	r := chi.NewRouter()

	r.Route("/playgrounds", func(r chi.Router) {
		r.Get("/", rr.listPlaygrounds)
		r.Post("/", rr.createPlayground)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", rr.getPlayground)
			r.Put("/", rr.updatePlayground)
			r.Delete("/", rr.deletePlayground)

			r.Post("/pedagogues", rr.addPedagogue)
			r.Delete("/pedagogues/{username}", rr.removePedagogue)

			r.Get("/events", rr.listPlaygroundEvents)
			r.Post("/events", rr.addPlaygroundEvent)

			r.Get("/messages", rr.listPlaygroundMessages)
			r.Post("/messages", rr.addPlaygroundMessage)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", rr.listUsers)
		r.Post("/", rr.createUser)
		r.Route("/{username}", func(r chi.Router) {
			r.Get("/", rr.getUser)
			r.Put("/", rr.updateUser)
			r.Delete("/", rr.deleteUser)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", rr.listEvents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rr.getEvent)
			r.Put("/", rr.updateEvent)
			r.Delete("/", rr.deleteEvent)
			r.Post("/participants", rr.addParticipant)
			r.Delete("/participants/{username}", rr.removeParticipant)
		})
	})

	r.Route("/messages", func(r chi.Router) {
		r.Get("/", rr.listMessages)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rr.getMessage)
			r.Put("/", rr.updateMessage)
			r.Delete("/", rr.deleteMessage)
		})
	})

	return r
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, map[string]string{"error": message}, statusCode)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. The
// service decides the error kind; only the mapping lives here.
func (rr *Routes) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrWriteFailed):
		writeError(w, err.Error(), http.StatusInternalServerError)
	case errors.Is(err, service.ErrUnavailable):
		writeError(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		rr.log.Error("unclassified error", zap.Error(err))
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

type createdResponse struct {
	ID string `json:"id"`
}

type ackResponse struct {
	Status string `json:"status"`
}

var ok = ackResponse{Status: "ok"}

// --- playgrounds ---

func (rr *Routes) listPlaygrounds(w http.ResponseWriter, r *http.Request) {
	playgrounds, err := rr.svc.ListPlaygrounds(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, playgrounds, http.StatusOK)
}

func (rr *Routes) createPlayground(w http.ResponseWriter, r *http.Request) {
	var p model.Playground
	if err := decode(r, &p); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	name, err := rr.svc.CreatePlayground(r.Context(), &p)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, createdResponse{ID: name}, http.StatusCreated)
}

func (rr *Routes) getPlayground(w http.ResponseWriter, r *http.Request) {
	view, err := rr.svc.GetPlayground(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

func (rr *Routes) updatePlayground(w http.ResponseWriter, r *http.Request) {
	var p model.Playground
	if err := decode(r, &p); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.Name = chi.URLParam(r, "name")
	if err := rr.svc.UpdatePlayground(r.Context(), &p); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) deletePlayground(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.DeletePlayground(r.Context(), chi.URLParam(r, "name")); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

// --- pedagogues ---

type pedagogueRequest struct {
	Username string `json:"username"`
}

func (rr *Routes) addPedagogue(w http.ResponseWriter, r *http.Request) {
	var req pedagogueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := rr.svc.AddPedagogue(r.Context(), chi.URLParam(r, "name"), req.Username); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) removePedagogue(w http.ResponseWriter, r *http.Request) {
	err := rr.svc.RemovePedagogue(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "username"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

// --- users ---

func (rr *Routes) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rr.svc.ListUsers(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, users, http.StatusOK)
}

type createUserRequest struct {
	model.User
	Password string `json:"password"`
}

func (rr *Routes) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	u := req.User
	u.Password = req.Password
	username, err := rr.svc.CreateUser(r.Context(), &u)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, createdResponse{ID: username}, http.StatusCreated)
}

func (rr *Routes) getUser(w http.ResponseWriter, r *http.Request) {
	view, err := rr.svc.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

func (rr *Routes) updateUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := decode(r, &u); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	u.Username = chi.URLParam(r, "username")
	if err := rr.svc.UpdateUser(r.Context(), &u); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

// --- events ---

func (rr *Routes) getEvent(w http.ResponseWriter, r *http.Request) {
	view, err := rr.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

func (rr *Routes) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := rr.svc.ListEvents(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, events, http.StatusOK)
}

func (rr *Routes) listPlaygroundEvents(w http.ResponseWriter, r *http.Request) {
	events, err := rr.svc.ListPlaygroundEvents(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, events, http.StatusOK)
}

func (rr *Routes) addPlaygroundEvent(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if err := decode(r, &e); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id, err := rr.svc.AddPlaygroundEvent(r.Context(), chi.URLParam(r, "name"), &e)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, createdResponse{ID: id}, http.StatusCreated)
}

func (rr *Routes) updateEvent(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if err := decode(r, &e); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "invalid event id", http.StatusBadRequest)
		return
	}
	e.ID = oid
	if err := rr.svc.UpdateEvent(r.Context(), &e); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.RemovePlaygroundEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) addParticipant(w http.ResponseWriter, r *http.Request) {
	var req pedagogueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := rr.svc.AddEventParticipant(r.Context(), chi.URLParam(r, "id"), req.Username); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) removeParticipant(w http.ResponseWriter, r *http.Request) {
	err := rr.svc.RemoveEventParticipant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "username"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

// --- messages ---

func (rr *Routes) getMessage(w http.ResponseWriter, r *http.Request) {
	m, err := rr.svc.GetMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, m, http.StatusOK)
}

func (rr *Routes) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := rr.svc.ListMessages(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, messages, http.StatusOK)
}

func (rr *Routes) listPlaygroundMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := rr.svc.ListPlaygroundMessages(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, messages, http.StatusOK)
}

func (rr *Routes) addPlaygroundMessage(w http.ResponseWriter, r *http.Request) {
	var m model.Message
	if err := decode(r, &m); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id, err := rr.svc.AddPlaygroundMessage(r.Context(), chi.URLParam(r, "name"), &m)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, createdResponse{ID: id}, http.StatusCreated)
}

func (rr *Routes) updateMessage(w http.ResponseWriter, r *http.Request) {
	var m model.Message
	if err := decode(r, &m); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "invalid message id", http.StatusBadRequest)
		return
	}
	m.ID = oid
	if err := rr.svc.UpdateMessage(r.Context(), &m); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}

func (rr *Routes) deleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.RemovePlaygroundMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	WriteJSON(w, ok, http.StatusOK)
}
