package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "register", "select_role", "dashboard", "courses", "course"}

func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		out[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		))
	}
	return out
}

// pageData is the model of every page. Fields a page does not use stay
// zero.
type pageData struct {
	Title   string
	Session *domain.Session
	Welcome string

	// Error is a flash message shown above the page; DataError replaces
	// the page's data section when loading it failed.
	Error     string
	DataError string

	CallbackURL string
	Providers   []string
	Roles       []domain.Role

	Courses        []domain.Course
	Course         domain.Course
	Lesson         template.HTML
	CourseProgress *domain.ProgressRecord
	Progress       []domain.ProgressRecord
}

// PagesHandler renders the server side pages.
type PagesHandler struct {
	Courses   *service.CourseService
	Progress  *service.ProgressService
	Providers []string

	templates map[string]*template.Template
}

func NewPagesHandler(courses *service.CourseService, progress *service.ProgressService, providers []string) *PagesHandler {
	return &PagesHandler{
		Courses:   courses,
		Progress:  progress,
		Providers: providers,
		templates: parseTemplates(),
	}
}

func newPageData(r *http.Request, title string) pageData {
	d := pageData{Title: title, Error: r.URL.Query().Get("error")}
	if s, ok := SessionFromContext(r.Context()); ok {
		d.Session = &s
		d.Welcome = s.Role.Welcome()
	}
	return d
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, d pageData) {
	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", d); err != nil {
		slogx.FromContext(r.Context()).Error("render page failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// dataError logs err and returns the message for an inline error block.
func dataError(r *http.Request, err error) string {
	slogx.FromContext(r.Context()).Error("page data failed", "error", err)
	return errx.Message(err)
}

func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	d := newPageData(r, "Home")
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		d.DataError = dataError(r, err)
	}
	d.Courses = courses
	h.render(w, r, http.StatusOK, "home", d)
}

func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	d := newPageData(r, "Log in")
	callbackURL := r.URL.Query().Get("callbackUrl")
	if d.Session != nil && d.Error == "" {
		http.Redirect(w, r, service.RedirectTarget(*d.Session, callbackURL), http.StatusSeeOther)
		return
	}
	if service.SafeCallback(callbackURL) {
		d.CallbackURL = callbackURL
	}
	d.Providers = h.Providers
	h.render(w, r, http.StatusOK, "login", d)
}

func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	d := newPageData(r, "Register")
	if d.Session != nil {
		http.Redirect(w, r, d.Session.LandingPath(), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", d)
}

func (h *PagesHandler) SelectRole(w http.ResponseWriter, r *http.Request) {
	d := newPageData(r, "Choose a role")
	if d.Session != nil && !d.Session.NeedsRole() {
		http.Redirect(w, r, d.Session.LandingPath(), http.StatusSeeOther)
		return
	}
	d.Roles = service.SelectableRoles()
	h.render(w, r, http.StatusOK, "select_role", d)
}

// Dashboard renders the landing page of role.
func (h *PagesHandler) Dashboard(role domain.Role) http.HandlerFunc {
	titles := map[domain.Role]string{
		domain.RoleStudent:    "Student dashboard",
		domain.RoleInstructor: "Instructor dashboard",
		domain.RoleAdmin:      "Admin dashboard",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		d := newPageData(r, titles[role])
		ctx := r.Context()

		courses, err := h.Courses.List(ctx)
		if err != nil {
			d.DataError = dataError(r, err)
		}
		d.Courses = courses

		if role == domain.RoleStudent && d.Session != nil && d.DataError == "" {
			progress, err := h.Progress.List(ctx, d.Session.UserID)
			if err != nil {
				d.DataError = dataError(r, err)
			}
			d.Progress = progress
		}
		if role == domain.RoleAdmin {
			d.Roles = domain.AssignableRoles()
		}
		h.render(w, r, http.StatusOK, "dashboard", d)
	}
}

func (h *PagesHandler) CourseList(w http.ResponseWriter, r *http.Request) {
	d := newPageData(r, "Courses")
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		d.DataError = dataError(r, err)
	}
	d.Courses = courses
	h.render(w, r, http.StatusOK, "courses", d)
}

func (h *PagesHandler) Course(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	course, lesson, err := h.Courses.Lesson(ctx, r.PathValue("slug"))
	if err != nil {
		if errx.KindOf(err) == errx.KindNotFound {
			http.NotFound(w, r)
			return
		}
		d := newPageData(r, "Course")
		d.DataError = dataError(r, err)
		h.render(w, r, http.StatusInternalServerError, "courses", d)
		return
	}

	d := newPageData(r, course.Title)
	d.Course = course
	d.Lesson = lesson
	if d.Session != nil {
		rec, err := h.Progress.Get(ctx, d.Session.UserID, domain.ItemModule, course.ModuleID)
		if err != nil {
			d.Error = dataError(r, err)
		}
		d.CourseProgress = rec
	}
	h.render(w, r, http.StatusOK, "course", d)
}
