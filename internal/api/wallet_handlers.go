package api

import (
	"net/http"
)

// GetWalletRequest is the body of /user/get-wallet
type GetWalletRequest struct {
	UserID string `json:"userId"`
}

// GetWalletResponse carries the wallet address. It is empty ({}) when the
// user has no wallet.
type GetWalletResponse struct {
	Address string `json:"address,omitempty"`
}

// CreateWalletRequest is the body of /user/create-wallet
type CreateWalletRequest struct {
	UserID string `json:"userID"`
	Pins   string `json:"pins"`
}

// CreateWalletResponse carries the new wallet address
type CreateWalletResponse struct {
	Address string `json:"address"`
}

// VerifyPasscodeRequest is the body of /user/verify-passcode
type VerifyPasscodeRequest struct {
	UserID string `json:"userId"`
	Pins   string `json:"pins"`
}

// VerifyPasscodeResponse reports whether the passcode matched
type VerifyPasscodeResponse struct {
	Valid bool `json:"valid"`
}

// handleGetWallet returns the address of a user's wallet.
// GET takes the user id from the query string; POST from the body.
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	var req GetWalletRequest

	switch r.Method {
	case http.MethodGet:
		req.UserID = r.URL.Query().Get("userId")
		if req.UserID == "" && r.ContentLength > 0 {
			if err := decodeJSON(r, &req); err != nil {
				s.writeError(w, err)
				return
			}
		}
	case http.MethodPost:
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	default:
		s.writeError(w, errMethodNotAllowed)
		return
	}

	address, found, err := s.custody.GetWallet(r.Context(), req.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := GetWalletResponse{}
	if found {
		resp.Address = address
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleCreateWallet creates the wallet of a user
func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, errMethodNotAllowed)
		return
	}

	var req CreateWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	address, err := s.custody.CreateWallet(r.Context(), req.UserID, req.Pins)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, CreateWalletResponse{Address: address})
}

// handleVerifyPasscode checks a passcode against the user's wallet
func (s *Server) handleVerifyPasscode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, errMethodNotAllowed)
		return
	}

	var req VerifyPasscodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	valid, err := s.custody.VerifyPasscode(r.Context(), req.UserID, req.Pins)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, VerifyPasscodeResponse{Valid: valid})
}
