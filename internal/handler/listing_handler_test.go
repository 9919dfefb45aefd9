package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/mosaic"
	"github.com/newleaf/newleaf/internal/validation"
)

const testListingID = "3a9e7c1d-5b2f-4e8a-b6c4-1d0f9e8a7b65"

func newTestListingHandler(svc *mockListingService) *ListingHandler {
	return NewListingHandler(svc, &mockFeedBuilder{}, "application/rss+xml; charset=utf-8")
}

func TestListListings_PlainListWithoutRecommendation(t *testing.T) {
	var listCalled, recommendCalled bool
	svc := &mockListingService{
		listFn: func(ctx context.Context, f model.ListingFilter, page model.PaginationQuery) (*model.PaginatedResult[*model.Listing], error) {
			listCalled = true
			if f.Category != "Seeds" || f.Sort != "price:asc" {
				t.Errorf("filter = %+v, want category Seeds and sort price:asc", f)
			}
			return model.NewPaginatedResult([]*model.Listing{{ID: testListingID}}, 1, page), nil
		},
		recommendFn: func(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error) {
			recommendCalled = true
			return nil, nil
		},
	}
	h := newTestListingHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/listings?category=Seeds&sort=price:asc", nil), testUserID)
	rec := httptest.NewRecorder()
	h.ListListings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !listCalled || recommendCalled {
		t.Errorf("listCalled = %v, recommendCalled = %v, want true/false", listCalled, recommendCalled)
	}
	var body struct {
		Data       []model.Listing  `json:"data"`
		Pagination model.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pagination.Total != 1 || len(body.Data) != 1 {
		t.Errorf("body = %+v, want one listing", body)
	}
}

func TestRecommendListings_RecommendsWithPostcode(t *testing.T) {
	var gotPostcode, gotUser, gotType string
	svc := &mockListingService{
		recommendFn: func(ctx context.Context, userID, postcode string, f model.ListingFilter, page model.PaginationQuery) (*mosaic.Recommendation[*model.Listing], error) {
			gotUser, gotPostcode, gotType = userID, postcode, f.Type
			return &mosaic.Recommendation[*model.Listing]{
				PaginatedResult: model.EmptyPaginatedResult[*model.Listing](page),
				Personalized:    true,
				Segment:         "Urban Families",
			}, nil
		},
	}
	h := newTestListingHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/listings/recommended?postcode=AB1+2CD&type=share", nil), testUserID)
	rec := httptest.NewRecorder()
	h.RecommendListings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != testUserID || gotPostcode != "AB1 2CD" || gotType != "share" {
		t.Errorf("Recommend(%q, %q, type=%q), want (%q, %q, share)", gotUser, gotPostcode, gotType, testUserID, "AB1 2CD")
	}
	if !strings.Contains(rec.Body.String(), `"segment":"Urban Families"`) {
		t.Errorf("body missing segment: %s", rec.Body.String())
	}
}

func TestRecommendListings_Unauthenticated(t *testing.T) {
	h := newTestListingHandler(&mockListingService{})
	rec := httptest.NewRecorder()
	h.RecommendListings(rec, httptest.NewRequest(http.MethodGet, "/api/listings/recommended", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateListing_AdminFlagFromRole(t *testing.T) {
	tests := []struct {
		name string
		role model.UserRole
		want bool
	}{
		{"admin", model.RoleAdmin, true},
		{"member", model.RoleCommunityMember, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got validation.ListingUpdate
			svc := &mockListingService{
				updateFn: func(ctx context.Context, id, userID string, in validation.ListingUpdate) (*model.Listing, error) {
					got = in
					return &model.Listing{ID: id}, nil
				},
			}
			h := newTestListingHandler(svc)

			body := strings.NewReader(`{"description":"fixed","Admin":true}`)
			req := httptest.NewRequest(http.MethodPatch, "/api/listings/"+testListingID, body)
			req = withChiURLParam(withRole(withUserID(req, testUserID), tt.role), map[string]string{"id": testListingID})
			rec := httptest.NewRecorder()
			h.UpdateListing(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got.Admin != tt.want {
				t.Errorf("Admin = %v, want %v", got.Admin, tt.want)
			}
		})
	}
}

func TestGetListing(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		found      bool
		wantStatus int
		wantCode   string
	}{
		{"不正なIDは400", "abc", false, http.StatusBadRequest, model.ErrCodeInvalidID},
		{"未登録は404", testListingID, false, http.StatusNotFound, model.ErrCodeListingNotFound},
		{"存在すれば200", testListingID, true, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockListingService{
				getByIDFn: func(ctx context.Context, id string) (*model.Listing, error) {
					if !tt.found {
						return nil, nil
					}
					return &model.Listing{ID: id, Name: "Seed tray"}, nil
				},
			}
			h := newTestListingHandler(svc)
			req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.GetListing(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if body := parseAPIErrorResponse(t, rec); body.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestCreateListing_SetsCreatorFromToken(t *testing.T) {
	var got validation.ListingCreate
	svc := &mockListingService{
		createFn: func(ctx context.Context, in validation.ListingCreate) (*model.Listing, error) {
			got = in
			return &model.Listing{ID: testListingID, Name: in.Name, CreatedBy: in.CreatedBy}, nil
		},
	}
	h := newTestListingHandler(svc)

	body := `{"name":"Seed tray","price":5,"quantity":1,"type":"item","category":"Garden","created_by":"someone-else"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(body)), testUserID)
	rec := httptest.NewRecorder()
	h.CreateListing(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got.CreatedBy != testUserID {
		t.Errorf("CreatedBy = %q, want %q", got.CreatedBy, testUserID)
	}
}

func TestCreateListing_InvalidJSON(t *testing.T) {
	h := newTestListingHandler(&mockListingService{})
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader("{")), testUserID)
	rec := httptest.NewRecorder()
	h.CreateListing(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := parseAPIErrorResponse(t, rec); body.Code != "INVALID_REQUEST" {
		t.Errorf("code = %q, want INVALID_REQUEST", body.Code)
	}
}

func TestPurchaseListing_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"販売終了は409", model.NewListingClosedError(), http.StatusConflict},
		{"ポイント不足は409", model.NewInsufficientPointsError(3, 10), http.StatusConflict},
		{"自分の出品は400", model.NewOwnListingError(), http.StatusBadRequest},
		{"未登録は404", model.NewListingNotFoundError(testListingID), http.StatusNotFound},
		{"内部エラーは500", errors.New("tx failed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockListingService{
				purchaseFn: func(ctx context.Context, id, buyerID string) (*model.Listing, error) {
					return nil, tt.err
				},
			}
			h := newTestListingHandler(svc)
			req := withUserID(httptest.NewRequest(http.MethodPost, "/", nil), testUserID)
			req = withChiURLParam(req, map[string]string{"id": testListingID})
			rec := httptest.NewRecorder()
			h.PurchaseListing(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPurchaseListing_PassesBuyerFromToken(t *testing.T) {
	var gotBuyer string
	svc := &mockListingService{
		purchaseFn: func(ctx context.Context, id, buyerID string) (*model.Listing, error) {
			gotBuyer = buyerID
			return &model.Listing{ID: id, Status: model.ListingStatusClosed, PurchasedBy: &buyerID}, nil
		},
	}
	h := newTestListingHandler(svc)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/", nil), testUserID)
	req = withChiURLParam(req, map[string]string{"id": testListingID})
	rec := httptest.NewRecorder()
	h.PurchaseListing(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotBuyer != testUserID {
		t.Errorf("buyer = %q, want %q", gotBuyer, testUserID)
	}
}

func TestFeed_WritesContentType(t *testing.T) {
	svc := &mockListingService{
		latestFn: func(ctx context.Context) ([]*model.Listing, error) {
			return []*model.Listing{{ID: testListingID}}, nil
		},
	}
	var built int
	feed := &mockFeedBuilder{buildFn: func(listings []*model.Listing) ([]byte, error) {
		built = len(listings)
		return []byte(`<rss version="2.0"></rss>`), nil
	}}
	h := NewListingHandler(svc, feed, "application/rss+xml; charset=utf-8")

	rec := httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/listings/feed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/rss+xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("Cache-Control = %q, want public, max-age=300", cc)
	}
	if built != 1 {
		t.Errorf("feed built with %d listings, want 1", built)
	}
	if !strings.HasPrefix(rec.Body.String(), "<rss") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
