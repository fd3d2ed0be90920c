package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// createProtocolRequest is the body of POST /api/v1/protocols.
type createProtocolRequest struct {
	ClassName string         `json:"className" validate:"required"`
	Label     string         `json:"label"`
	HostName  string         `json:"hostName"`
	Inputs    map[string]any `json:"inputs"`
	QueueName string         `json:"queueName"`
}

func (s *Server) listProtocols(c echo.Context) error {
	if class := c.QueryParam("class"); class != "" {
		protocols, err := s.proj.Store().ListProtocolsByClass(class)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, protocols)
	}
	protocols, err := s.proj.Store().ListProtocols()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sort.Slice(protocols, func(i, j int) bool { return protocols[i].ID < protocols[j].ID })
	return c.JSON(http.StatusOK, protocols)
}

func (s *Server) createProtocol(c echo.Context) error {
	var req createProtocolRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := s.proj.NewProtocol(req.ClassName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Label != "" {
		p.Label = req.Label
	}
	p.HostName = req.HostName
	if req.Inputs != nil {
		p.Inputs = req.Inputs
	}
	if err := s.proj.Store().CreateProtocol(p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) getProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	if err := s.proj.DeleteProtocol(p); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) launchProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	if err := s.proj.LaunchProtocol(p, false); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type scheduleRequest struct {
	Prerequisites []int64 `json:"prerequisites"`
}

func (s *Server) scheduleProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.proj.ScheduleProtocol(p, req.Prerequisites, 0); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) stopProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	if err := s.proj.StopProtocol(p, nil); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) resetProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	if err := s.proj.ResetProtocol(p, nil); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) continueProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	if err := s.proj.ContinueProtocol(p); err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) copyProtocol(c echo.Context) error {
	p, err := s.loadProtocol(c)
	if err != nil {
		return err
	}
	cp, err := s.proj.CopyProtocol(p)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusCreated, cp)
}

type exportRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) exportWorkflow(c echo.Context) error {
	all, err := s.proj.Store().ListProtocols()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	selected := all
	if raw := c.QueryParam("ids"); raw != "" {
		wanted := map[string]bool{}
		for _, id := range splitCSV(raw) {
			wanted[id] = true
		}
		selected = selected[:0]
		for _, p := range all {
			if wanted[itoa(p.ID)] {
				selected = append(selected, p)
			}
		}
	}
	data, err := s.proj.ExportProtocols(selected)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/json", data)
}

func (s *Server) importWorkflow(c echo.Context) error {
	body, err := readAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	imported, err := s.proj.ImportProtocols(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, imported)
}

func (s *Server) listHosts(c echo.Context) error {
	names := s.proj.HostNames()
	sort.Strings(names)
	return c.JSON(http.StatusOK, names)
}

func (s *Server) getHost(c echo.Context) error {
	cfg := s.proj.GetHostConfig(c.Param("name"))
	return c.JSON(http.StatusOK, cfg)
}
