package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kmrl/induction/core/emergency"
	"github.com/kmrl/induction/core/engine"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/planlog"
	"github.com/kmrl/induction/core/planner"
	"github.com/kmrl/induction/core/whatif"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var snap model.FleetSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode snapshot: %w", err))
		return
	}
	if snap.At.IsZero() {
		snap.At = time.Now()
	}
	plan, err := s.engine.GeneratePlan(r.Context(), snap)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.engine.Plan(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	plan, err := s.engine.LatestPlan(r.URL.Query().Get("depot"), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	plans, err := s.engine.PlanHistory(r.URL.Query().Get("depot"), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plans)
}

type approveRequest struct {
	By string `json:"by"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.By == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("approver identity is required"))
		return
	}
	plan, err := s.engine.Approve(r.PathValue("id"), req.By)
	if err != nil {
		if errors.Is(err, engine.ErrPlanNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

type overrideRequest struct {
	TrainID    string               `json:"train_id"`
	To         model.AssignmentType `json:"to"`
	Reason     string               `json:"reason"`
	Supervisor string               `json:"supervisor"`
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode override: %w", err))
		return
	}
	plan, err := s.engine.Override(engine.OverrideRequest{
		PlanID:     r.PathValue("id"),
		TrainID:    req.TrainID,
		To:         req.To,
		Reason:     req.Reason,
		Supervisor: req.Supervisor,
	})
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrPlanNotFound):
			s.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, engine.ErrOverrideRejected):
			s.writeError(w, http.StatusUnprocessableEntity, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

type withdrawalResponse struct {
	Plan        *model.InductionPlan   `json:"plan"`
	Replacement *model.ReplacementPlan `json:"replacement,omitempty"`
	Degraded    bool                   `json:"degraded,omitempty"`
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var wd model.Withdrawal
	if err := json.NewDecoder(r.Body).Decode(&wd); err != nil || wd.TrainID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("a withdrawal needs a train_id"))
		return
	}
	if wd.ReportedAt.IsZero() {
		wd.ReportedAt = time.Now()
	}
	plan, rp, err := s.engine.HandleWithdrawal(r.Context(), wd)
	if err != nil && !errors.Is(err, emergency.ErrNoFeasibleReplacement) {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, withdrawalResponse{
		Plan:        plan,
		Replacement: rp,
		Degraded:    err != nil,
	})
}

type crisisRequest struct {
	Depot       string             `json:"depot"`
	Date        string             `json:"date"`
	Withdrawals []model.Withdrawal `json:"withdrawals"`
}

func (s *Server) handleCrisis(w http.ResponseWriter, r *http.Request) {
	var req crisisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Withdrawals) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("a crisis report needs withdrawals"))
		return
	}
	plan, err := s.engine.ReportCrisis(r.Context(), req.Depot, req.Date, req.Withdrawals)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, plan)
}

type whatIfRequest struct {
	Depot          string   `json:"depot"`
	Date           string   `json:"date"`
	Name           string   `json:"name"`
	BrandingWeight *float64 `json:"branding_weight,omitempty"`
	Withdraw       []string `json:"withdraw,omitempty"`
	ExpireCerts    []string `json:"expire_certificates,omitempty"`
	SpecialClean   []string `json:"special_clean,omitempty"`
	ServiceTarget  *int     `json:"service_target,omitempty"`
}

func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode scenario: %w", err))
		return
	}
	sc := whatif.Scenario{Name: req.Name}
	if req.BrandingWeight != nil {
		weights := planner.DefaultWeights()
		weights.Branding = *req.BrandingWeight
		sc.Weights = &weights
	}
	for _, id := range req.Withdraw {
		sc.Transforms = append(sc.Transforms, whatif.WithdrawTrain(id))
	}
	for _, id := range req.ExpireCerts {
		sc.Transforms = append(sc.Transforms, whatif.ExpireCertificates(id))
	}
	for _, id := range req.SpecialClean {
		sc.Transforms = append(sc.Transforms, whatif.RequireSpecialClean(id))
	}
	if req.ServiceTarget != nil {
		sc.Transforms = append(sc.Transforms, whatif.SetServiceTarget(*req.ServiceTarget))
	}

	res, err := s.engine.WhatIf(r.Context(), req.Depot, req.Date, sc)
	if err != nil {
		if errors.Is(err, engine.ErrPlanNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.engine.AuditTrail(planlog.Filter{
		Depot:   q.Get("depot"),
		Kind:    q.Get("kind"),
		TrainID: q.Get("train"),
		PlanID:  q.Get("plan"),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}
