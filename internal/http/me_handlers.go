package httpapi

import (
	"net/http"

	"kfolx-backend-go/internal/services"
)

type ProfileUpdateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	page, err := s.Users.Profile(r.Context(), CurrentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.Users.UpdateProfile(r.Context(), CurrentUserID(r), services.ProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]services.UserView{"user": user})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := s.Users.ChangePassword(r.Context(), CurrentUserID(r), services.PasswordChange{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "Pilih file foto profil")
		return
	}
	_, header, err := r.FormFile("profile_picture")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Pilih file foto profil")
		return
	}
	url, err := s.Users.UploadProfilePicture(r.Context(), CurrentUserID(r), uploadedFile(header))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
