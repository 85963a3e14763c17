package httpapi

import (
	"net/http"

	"kfolx-backend-go/internal/models"
	"kfolx-backend-go/internal/services"
)

type StatusRequest struct {
	Status string `json:"status"`
}

type CreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	page, err := s.Ads.Home(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := s.Ads.Categories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) Locations(w http.ResponseWriter, r *http.Request) {
	items, err := s.Ads.Locations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) SearchAds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.SearchFilters{
		Title:      trimString(q.Get("title"), maxQueryLen),
		Location:   trimString(q.Get("location"), maxQueryLen),
		CategoryID: parseInt64(q.Get("category_id")),
		MinPrice:   parseAmount(q.Get("min_price")),
		MaxPrice:   parseAmount(q.Get("max_price")),
		Sort:       q.Get("sort"),
	}
	page, err := s.Ads.Search(r.Context(), filters, parseInt(q.Get("page"), 1))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) AdDetail(w http.ResponseWriter, r *http.Request) {
	adID, ok := adIDParam(w, r)
	if !ok {
		return
	}
	detail, err := s.Ads.Detail(r.Context(), adID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) CreateAd(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		WriteError(w, http.StatusBadRequest, "Data yang dikirim tidak valid")
		return
	}
	id, err := s.Ads.Create(r.Context(), CurrentUserID(r), adInput(r), formFiles(r, "images[]", "images"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, CreatedResponse{ID: id, Message: "Iklan berhasil dipasang"})
}

func (s *Server) EditAdForm(w http.ResponseWriter, r *http.Request) {
	adID, ok := adIDParam(w, r)
	if !ok {
		return
	}
	form, err := s.Ads.EditForm(r.Context(), adID, CurrentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, form)
}

func (s *Server) EditAd(w http.ResponseWriter, r *http.Request) {
	adID, ok := adIDParam(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		WriteError(w, http.StatusBadRequest, "Data yang dikirim tidak valid")
		return
	}
	input := adInput(r)
	input.Status = r.FormValue("status")
	deleteIDs := formIDs(r, "delete_images[]", "delete_images")
	files := formFiles(r, "new_images[]", "new_images")
	if err := s.Ads.Edit(r.Context(), adID, CurrentUserID(r), input, deleteIDs, files); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Iklan berhasil diperbarui"})
}

func (s *Server) SetAdStatus(w http.ResponseWriter, r *http.Request) {
	adID, ok := adIDParam(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Ads.SetStatus(r.Context(), adID, CurrentUserID(r), req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Status iklan berhasil diperbarui"})
}

func (s *Server) DeleteAd(w http.ResponseWriter, r *http.Request) {
	adID, ok := adIDParam(w, r)
	if !ok {
		return
	}
	if err := s.Ads.Delete(r.Context(), adID, CurrentUserID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Iklan berhasil dihapus"})
}

func (s *Server) MyAds(w http.ResponseWriter, r *http.Request) {
	page, err := s.Ads.MyAds(r.Context(), CurrentUserID(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func adInput(r *http.Request) services.AdInput {
	return services.AdInput{
		Title:       r.FormValue("title"),
		CategoryID:  parseInt64(r.FormValue("category_id")),
		Price:       r.FormValue("price"),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
		Phone:       r.FormValue("phone"),
	}
}
