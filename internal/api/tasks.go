package api

import (
	"net/http"
	"strconv"

	"evsched/internal/model"
	"evsched/internal/schedule"
)

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Tasks.List(r.Context())
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in schedule.TaskInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Create(r.Context(), in)
	s.respond(w, r, http.StatusCreated, t, err)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Get(r.Context(), id)
	s.respond(w, r, http.StatusOK, t, err)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in schedule.TaskInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Update(r.Context(), id, in)
	s.respond(w, r, http.StatusOK, t, err)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Tasks.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Toggle(r.Context(), id)
	s.respond(w, r, http.StatusOK, t, err)
}

func (s *Server) tasksByCompleted(w http.ResponseWriter, r *http.Request) {
	completed, err := strconv.ParseBool(r.PathValue("completed"))
	if err != nil {
		s.writeError(w, r, badRequest("completed must be true or false"))
		return
	}
	tasks, err := s.svc.Tasks.ByCompleted(r.Context(), completed)
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) tasksByPriority(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParseTaskPriority(r.PathValue("priority"))
	if err != nil {
		s.writeError(w, r, badRequest(err.Error()))
		return
	}
	tasks, err := s.svc.Tasks.ByPriority(r.Context(), p)
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) tasksByEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tasks, err := s.svc.Tasks.ByEvent(r.Context(), id)
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) tasksByAssignee(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Tasks.ByAssignee(r.Context(), r.PathValue("assignee"))
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) overdueTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Tasks.Overdue(r.Context())
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) tasksDueToday(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Tasks.DueToday(r.Context())
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) searchTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Tasks.SearchTitle(r.Context(), r.URL.Query().Get("title"))
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Dashboard.Stats(r.Context())
	s.respond(w, r, http.StatusOK, st, err)
}

func (s *Server) recentTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Dashboard.RecentTasks(r.Context())
	s.respond(w, r, http.StatusOK, tasks, err)
}

func (s *Server) dashboardUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Dashboard.UpcomingEvents(r.Context())
	s.respond(w, r, http.StatusOK, events, err)
}

func (s *Server) dashboardOverdue(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Dashboard.OverdueTasks(r.Context())
	s.respond(w, r, http.StatusOK, tasks, err)
}
