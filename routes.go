package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aulalabs/aula/rag"
	"github.com/aulalabs/aula/store"
	"github.com/aulalabs/aula/tutor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type apiDeps struct {
	tutors        map[tutor.Persona]*tutor.Tutor
	augmenter     *rag.Augmenter
	library       *rag.Library
	sourceManager *rag.SourceManager
	store         *store.Store
	refresh       time.Duration
}

func startAPI(listenAddress string, deps *apiDeps) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/api/chat", chat(deps))
	e.POST("/api/context", augmentationContext(deps))

	e.POST("/api/progress", recordProgress(deps))
	e.GET("/api/students/:id/progress", studentProgress(deps))
	e.POST("/api/lessons", addLesson(deps))
	e.GET("/api/lessons", listLessons(deps))

	e.GET("/api/library", listLibrary(deps))
	e.POST("/api/library/upload", uploadLessonFile(deps))
	e.GET("/api/sources", listSources(deps))
	e.POST("/api/sources", addSource(deps))

	e.Logger.Fatal(e.Start(listenAddress))
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

func chat(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		type request struct {
			StudentID string `json:"student_id"`
			Message   string `json:"message"`
			TutorType string `json:"tutor_type"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		t, exists := deps.tutors[tutor.Persona(r.TutorType)]
		if !exists {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid tutor type"))
		}

		reply, err := t.Chat(c.Request().Context(), r.StudentID, r.Message)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to generate answer: "+err.Error()))
		}

		return c.JSON(http.StatusOK, reply)
	}
}

func augmentationContext(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		type request struct {
			Query string `json:"query"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Query == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		docs, decision := deps.augmenter.GetContext(c.Request().Context(), r.Query)
		return c.JSON(http.StatusOK, map[string]any{
			"documents": docs,
			"decision":  decision,
		})
	}
}

func recordProgress(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deps.store == nil {
			return c.JSON(http.StatusServiceUnavailable, errorMessage("Persistence is not configured"))
		}

		p := new(store.Progress)
		if err := c.Bind(p); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		id, err := deps.store.RecordProgress(c.Request().Context(), *p)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to record progress"))
		}
		p.ID = id
		return c.JSON(http.StatusCreated, p)
	}
}

func studentProgress(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deps.store == nil {
			return c.JSON(http.StatusServiceUnavailable, errorMessage("Persistence is not configured"))
		}

		progress, err := deps.store.ProgressForStudent(c.Request().Context(), c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to fetch progress"))
		}
		return c.JSON(http.StatusOK, progress)
	}
}

func addLesson(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deps.store == nil {
			return c.JSON(http.StatusServiceUnavailable, errorMessage("Persistence is not configured"))
		}

		l := new(store.Lesson)
		if err := c.Bind(l); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		id, err := deps.store.AddLesson(c.Request().Context(), *l)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to add lesson"))
		}
		l.ID = id

		// Lessons also feed the local retrieval corpus.
		if err := deps.library.SeedStrings(c.Request().Context(), map[string]string{
			"title":    l.Title,
			"category": l.TopicCategory,
		}, l.Content); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to index lesson"))
		}

		return c.JSON(http.StatusCreated, l)
	}
}

func listLessons(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deps.store == nil {
			return c.JSON(http.StatusServiceUnavailable, errorMessage("Persistence is not configured"))
		}

		lessons, err := deps.store.LessonsByCategory(c.Request().Context(), c.QueryParam("category"), c.QueryParam("difficulty"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to fetch lessons"))
		}
		return c.JSON(http.StatusOK, lessons)
	}
}

func listLibrary(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, deps.library.ListEntries())
	}
}

// uploadLessonFile accepts a lesson file (.txt, .md, .pdf) and seeds it
// into the library.
func uploadLessonFile(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		tmpDir, err := os.MkdirTemp("", "lesson-upload-*")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create temporary file"))
		}
		defer os.RemoveAll(tmpDir)

		filePath := filepath.Join(tmpDir, file.Filename)
		out, err := os.Create(filePath)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}

		if _, err := io.Copy(out, f); err != nil {
			out.Close()
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to copy file"))
		}
		out.Close()

		if err := deps.library.Seed(c.Request().Context(), filePath, map[string]string{"uploaded": "true"}); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to store file: "+err.Error()))
		}

		return c.JSON(http.StatusOK, deps.library.ListEntries())
	}
}

func listSources(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, deps.sourceManager.ListSources())
	}
}

func addSource(deps *apiDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		type request struct {
			URL string `json:"url"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := deps.sourceManager.AddSource(c.Request().Context(), r.URL, deps.refresh); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to add source"))
		}
		return c.JSON(http.StatusCreated, deps.sourceManager.ListSources())
	}
}
