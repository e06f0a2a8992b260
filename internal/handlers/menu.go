package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// MenuTitle is the heading of the menu screen
const MenuTitle = "Welcome to Cupid Code!!"

// MenuEntry is one button on the menu screen. Entries that are not
// available have no destination yet.
type MenuEntry struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
	Href      string `json:"href,omitempty"`
}

// Menu is the menu screen
type Menu struct {
	Title   string      `json:"title"`
	Entries []MenuEntry `json:"entries"`
}

// DefaultMenu returns the menu served to signed-in users
func DefaultMenu() Menu {
	return Menu{
		Title: MenuTitle,
		Entries: []MenuEntry{
			{ID: "todo_list", Label: "To Do List", Available: true, Href: "/api/v1/todo-sessions"},
			{ID: "ai_chef", Label: "AI Chef"},
			{ID: "diary", Label: "Diary"},
		},
	}
}

// MenuHandler serves the menu hub
type MenuHandler struct {
	menu Menu
}

// NewMenuHandler creates a menu handler
func NewMenuHandler() *MenuHandler {
	return &MenuHandler{menu: DefaultMenu()}
}

// RegisterRoutes registers menu routes
func (h *MenuHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/menu", h.GetMenu).Methods("GET")
}

// GetMenu returns the menu
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.menu)
}
