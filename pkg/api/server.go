package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/cfxkit/pkg/address"
	"github.com/uhyunpark/cfxkit/pkg/crypto"
	"github.com/uhyunpark/cfxkit/pkg/wallet"
)

const maxBodyBytes = 1 << 20

// Server exposes the address codec and the wallet manager over REST
type Server struct {
	manager        *wallet.Manager
	router         *mux.Router
	logger         *zap.SugaredLogger
	allowedOrigins []string
	httpServer     *http.Server
}

// NewServer creates a new API server
func NewServer(manager *wallet.Manager, allowedOrigins []string, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		manager:        manager,
		router:         mux.NewRouter(),
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Address codec endpoints
	api.HandleFunc("/addresses/encode", s.handleEncodeAddress).Methods("POST")
	api.HandleFunc("/addresses/{address}", s.handleGetAddress).Methods("GET")

	// Account endpoints
	api.HandleFunc("/accounts", s.handleListAccounts).Methods("GET")
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods("POST")
	api.HandleFunc("/accounts/import", s.handleImportAccount).Methods("POST")
	api.HandleFunc("/accounts/{address}", s.handleDeleteAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{address}/keystore", s.handleGetKeystore).Methods("GET")
	api.HandleFunc("/accounts/{address}/unlock", s.handleUnlock).Methods("POST")
	api.HandleFunc("/accounts/{address}/lock", s.handleLock).Methods("POST")
	api.HandleFunc("/accounts/{address}/sign", s.handleSign).Methods("POST")

	// Signature recovery
	api.HandleFunc("/recover", s.handleRecover).Methods("POST")

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves until Shutdown is called
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Infow("api_server_starting", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ==============================
// Address Handlers
// ==============================

func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	netName := r.URL.Query().Get("netName")
	if netName == "" {
		netName = s.manager.NetName()
	}

	addr, err := address.Parse(mux.Vars(r)["address"], netName)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}
	info, err := addressInfo(addr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}
	respondJSON(w, info)
}

func (s *Server) handleEncodeAddress(w http.ResponseWriter, r *http.Request) {
	var req EncodeAddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NetName == "" {
		req.NetName = s.manager.NetName()
	}

	addr, err := address.FromHex(req.Hex, req.NetName)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}
	info, err := addressInfo(addr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}
	respondJSON(w, info)
}

// ==============================
// Account Handlers
// ==============================

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.manager.Accounts()
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password required", "")
		return
	}

	acc, err := s.manager.NewAccount(req.Label, req.Password)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSONStatus(w, http.StatusCreated, acc)
}

func (s *Server) handleImportAccount(w http.ResponseWriter, r *http.Request) {
	var req ImportAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password required", "")
		return
	}

	var (
		acc wallet.Account
		err error
	)
	switch {
	case req.PrivateKey != "" && len(req.Keystore) == 0:
		var key []byte
		key, err = hexutil.Decode(req.PrivateKey)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid private key", err.Error())
			return
		}
		acc, err = s.manager.ImportPrivateKey(key, req.Label, req.Password)
	case req.PrivateKey == "" && len(req.Keystore) > 0:
		acc, err = s.manager.ImportKeystore(req.Keystore, req.Label, req.Password)
	default:
		respondError(w, http.StatusBadRequest, "invalid import", "set exactly one of privateKey or keystore")
		return
	}
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSONStatus(w, http.StatusCreated, acc)
}

func (s *Server) handleGetKeystore(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	ks, err := s.manager.Export(addr)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, ks)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.manager.Unlock(addr, req.Password); err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "unlocked"})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	if err := s.manager.Lock(addr); err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "locked"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.manager.Delete(addr, req.Password); err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req SignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := hexutil.Decode(req.Hash)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid hash", err.Error())
		return
	}

	sig, err := s.manager.SignHash(addr, hash)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, SignatureInfo{
		R:         hexutil.Encode(sig.R[:]),
		S:         hexutil.Encode(sig.S[:]),
		V:         sig.V,
		Signature: hexutil.Encode(sig.Bytes()),
	})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req RecoverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NetName == "" {
		req.NetName = s.manager.NetName()
	}

	hash, err := hexutil.Decode(req.Hash)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid hash", err.Error())
		return
	}
	raw, err := hexutil.Decode(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid signature", err.Error())
		return
	}
	sig, err := crypto.SignatureFromBytes(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid signature", err.Error())
		return
	}

	addr, err := crypto.RecoverAddress(hash, sig, req.NetName)
	if err != nil {
		respondError(w, http.StatusBadRequest, "recover failed", err.Error())
		return
	}
	info, err := addressInfo(addr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "recover failed", err.Error())
		return
	}
	respondJSON(w, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok", "netName": s.manager.NetName()})
}

// ==============================
// Helper Functions
// ==============================

func (s *Server) pathAddress(w http.ResponseWriter, r *http.Request) (address.ChecksumAddress, bool) {
	addr, err := address.Parse(mux.Vars(r)["address"], s.manager.NetName())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return address.ChecksumAddress{}, false
	}
	return addr, true
}

func addressInfo(addr address.ChecksumAddress) (AddressInfo, error) {
	h, err := addr.Hex()
	if err != nil {
		return AddressInfo{}, err
	}
	return AddressInfo{
		Address: addr,
		Simple:  addr.Simple(),
		Hex:     h,
		Type:    addr.Type().String(),
		NetName: addr.NetName(),
		Valid:   addr.IsValid(),
		Object:  addr.Object(),
	}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account not found", err.Error())
	case errors.Is(err, wallet.ErrAccountExists):
		respondError(w, http.StatusConflict, "account exists", err.Error())
	case errors.Is(err, wallet.ErrLocked):
		respondError(w, http.StatusLocked, "account locked", err.Error())
	case errors.Is(err, crypto.ErrWrongPassword):
		respondError(w, http.StatusUnauthorized, "wrong password", err.Error())
	case errors.Is(err, crypto.ErrMalformedKeystore),
		errors.Is(err, crypto.ErrUnsupportedKeystore),
		errors.Is(err, crypto.ErrKeyLength),
		errors.Is(err, crypto.ErrHashLength):
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	respondJSONStatus(w, http.StatusOK, data)
}

func respondJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
