package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/services"
)

type setQuotaRequest struct {
	Account         string `json:"account"`
	Tier            uint8  `json:"tier"`
	DailyFileLimit  uint32 `json:"daily_file_limit"`
	DailySizeLimit  uint64 `json:"daily_size_limit"`
	WeeklyFileLimit uint32 `json:"weekly_file_limit"`
	WeeklySizeLimit uint64 `json:"weekly_size_limit"`
}

func (s *Server) setQuota(c echo.Context) error {
	var req setQuotaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.quota.SetQuota(c.Request().Context(), callerFrom(c), services.SetQuotaParams{
		Account:         req.Account,
		Tier:            req.Tier,
		DailyFileLimit:  req.DailyFileLimit,
		DailySizeLimit:  req.DailySizeLimit,
		WeeklyFileLimit: req.WeeklyFileLimit,
		WeeklySizeLimit: req.WeeklySizeLimit,
	}); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getQuota(c echo.Context) error {
	q, err := s.quota.GetQuota(c.Request().Context(), c.Param("account"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toQuotaDTO(q))
}

type addAdminKeyRequest struct {
	AdminAccount string `json:"admin_account"`
	PublicKey    string `json:"public_key"`
	Description  string `json:"description"`
}

func (s *Server) addAdminKey(c echo.Context) error {
	var req addAdminKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	key, err := s.escrow.AddAdminKey(c.Request().Context(), callerFrom(c), services.AddAdminKeyParams{
		AdminAccount: req.AdminAccount,
		PublicKey:    req.PublicKey,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAdminKeyDTO(key))
}

func (s *Server) removeAdminKey(c echo.Context) error {
	keyID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.escrow.RemoveAdminKey(c.Request().Context(), callerFrom(c), keyID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listAdminKeys(c echo.Context) error {
	keys, err := s.escrow.ListActiveKeys(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]adminKeyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, toAdminKeyDTO(k))
	}
	return c.JSON(http.StatusOK, out)
}

type addAdminDekRequest struct {
	NewEncryptedDEK string `json:"new_encrypted_dek"`
}

func (s *Server) addAdminDek(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addAdminDekRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.escrow.AddAdminDek(c.Request().Context(), callerFrom(c), fileID, req.NewEncryptedDEK); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type logAccessRequest struct {
	AdminAccount string `json:"admin_account"`
	FileID       uint64 `json:"file_id"`
	Reason       string `json:"reason"`
}

func (s *Server) logAccess(c echo.Context) error {
	var req logAccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := s.audit.LogAccess(c.Request().Context(), callerFrom(c), req.AdminAccount, req.FileID, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAccessLogDTO(entry))
}

func (s *Server) listFileAccess(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	entries, err := s.audit.ListFileAccess(c.Request().Context(), fileID)
	if err != nil {
		return err
	}

	out := make([]accessLogDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAccessLogDTO(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) archiveUploadURL(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	key, url, err := s.archive.PresignArchivePut(c.Request().Context(), callerFrom(c), fileID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"storage_key": key, "url": url})
}

func (s *Server) archiveDownloadURL(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	url, err := s.archive.PresignArchiveGet(c.Request().Context(), callerFrom(c), fileID, c.QueryParam("key"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

type mintTokenRequest struct {
	Account string `json:"account"`
}

// mintToken issues an account bearer token. Only the privileged service,
// which performs end-user authentication upstream, may call it.
func (s *Server) mintToken(c echo.Context) error {
	caller := callerFrom(c)
	if !caller.IsService {
		return echo.NewHTTPError(http.StatusForbidden, "tokens are minted by the service identity only")
	}

	var req mintTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Account == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "account cannot be empty")
	}

	token, err := auth.GenerateToken(req.Account, []byte(s.config.SecretKey), s.config.TokenValidityDuration)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}
