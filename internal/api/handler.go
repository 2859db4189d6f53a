package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/log"
)

const requestTimeout = 10 * time.Second

func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "maskwatch is healthy"})
}

func (s *Server) ListZones(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	zones, err := s.monitor.Zones(ctx)
	if err != nil {
		return s.errs.Handle(c, err, "list_zones")
	}
	if zones == nil {
		zones = []geo.Zone{}
	}
	return c.JSON(ZonesResponse{Zones: zones})
}

func (s *Server) AddZone(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req AddZoneRequest
	if err := c.BodyParser(&req); err != nil {
		return s.errs.Handle(c, &Error{Code: fiber.StatusBadRequest, Err: err}, "parse_request_body")
	}
	if err := s.validator.Struct(req); err != nil {
		return s.errs.HandleValidationError(c, err)
	}

	log.Debug(log.Fields{"request_id": GetRequestID(c), "zone": req.Name}, "Processing add zone request")

	loc := geo.Location{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := s.monitor.AddZone(ctx, req.Name, loc, req.Current); err != nil {
		return s.errs.Handle(c, err, "add_zone")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Zone added successfully"})
}

func (s *Server) RemoveZone(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	name := c.Params("name")
	if name == "" {
		return s.errs.Handle(c, NewError(fiber.StatusBadRequest, "zone name is required"), "remove_zone")
	}
	if err := s.monitor.RemoveZone(ctx, name); err != nil {
		return s.errs.Handle(c, err, "remove_zone")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) ClearZones(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	if err := s.monitor.ClearZones(ctx); err != nil {
		return s.errs.Handle(c, err, "clear_zones")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) UpdateLocation(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return s.errs.Handle(c, &Error{Code: fiber.StatusBadRequest, Err: err}, "parse_request_body")
	}
	if err := s.validator.Struct(req); err != nil {
		return s.errs.HandleValidationError(c, err)
	}

	accepted, err := s.monitor.UpdateLocation(ctx, geo.Location{Latitude: req.Latitude, Longitude: req.Longitude})
	if err != nil {
		return s.errs.Handle(c, err, "update_location")
	}
	status, err := s.monitor.Status(ctx)
	if err != nil {
		return s.errs.Handle(c, err, "update_location")
	}
	return c.JSON(LocationResponse{Accepted: accepted, IsSafe: status.IsSafe})
}

func (s *Server) SetScreen(c *fiber.Ctx) error {
	if s.screen == nil {
		return s.errs.Handle(c, NewError(fiber.StatusConflict, "screen state is not managed through the api"), "set_screen")
	}

	var req ScreenRequest
	if err := c.BodyParser(&req); err != nil {
		return s.errs.Handle(c, &Error{Code: fiber.StatusBadRequest, Err: err}, "parse_request_body")
	}
	if err := s.validator.Struct(req); err != nil {
		return s.errs.HandleValidationError(c, err)
	}

	s.screen.Set(*req.Interactive)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) Status(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	status, err := s.monitor.Status(ctx)
	if err != nil {
		return s.errs.Handle(c, err, "status")
	}
	if status.Zones == nil {
		status.Zones = []geo.Zone{}
	}
	return c.JSON(status)
}

func (s *Server) LatestResult(c *fiber.Ctx) error {
	report, ok := s.monitor.Latest()
	if !ok {
		return s.errs.Handle(c, NewError(fiber.StatusNotFound, "no classification round has completed yet"), "latest_result")
	}
	return c.JSON(newResultResponse(report))
}

func (s *Server) ListResults(c *fiber.Ctx) error {
	if s.results == nil {
		return s.errs.Handle(c, NewError(fiber.StatusNotFound, "result history is not enabled"), "list_results")
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 500 {
		return s.errs.HandleValidationError(c, NewError(fiber.StatusBadRequest, "limit must be between 1 and 500"))
	}

	records, err := s.results.ListResults(ctx, limit)
	if err != nil {
		return s.errs.Handle(c, err, "list_results")
	}
	out := make([]ResultResponse, 0, len(records))
	for _, r := range records {
		out = append(out, newHistoryResponse(r))
	}
	return c.JSON(fiber.Map{"results": out})
}
