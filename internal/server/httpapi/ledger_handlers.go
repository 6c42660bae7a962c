package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/verarta/artledger/internal/server/services"
)

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

type createArtworkRequest struct {
	ArtworkID         uint64 `json:"artwork_id"`
	Owner             string `json:"owner"`
	TitleCipher       string `json:"title_cipher"`
	DescriptionCipher string `json:"description_cipher"`
	MetadataCipher    string `json:"metadata_cipher"`
	CreatorPublicKey  string `json:"creator_public_key"`
}

func (s *Server) createArtwork(c echo.Context) error {
	var req createArtworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := s.ledger.CreateArtwork(c.Request().Context(), callerFrom(c), services.CreateArtworkParams{
		ArtworkID:         req.ArtworkID,
		Owner:             req.Owner,
		TitleCipher:       req.TitleCipher,
		DescriptionCipher: req.DescriptionCipher,
		MetadataCipher:    req.MetadataCipher,
		CreatorPublicKey:  req.CreatorPublicKey,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toArtworkDTO(a))
}

type updateArtworkRequest struct {
	Owner             string `json:"owner"`
	DescriptionCipher string `json:"description_cipher"`
	MetadataCipher    string `json:"metadata_cipher"`
}

func (s *Server) updateArtwork(c echo.Context) error {
	artworkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateArtworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.UpdateArtwork(c.Request().Context(), callerFrom(c),
		artworkID, req.Owner, req.DescriptionCipher, req.MetadataCipher); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getArtwork(c echo.Context) error {
	artworkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	a, err := s.ledger.GetArtwork(c.Request().Context(), artworkID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toArtworkDTO(a))
}

type transferArtworkRequest struct {
	From             string   `json:"from"`
	To               string   `json:"to"`
	FileIDs          []uint64 `json:"file_ids"`
	NewEncryptedDEKs []string `json:"new_encrypted_deks"`
	NewAuthTags      []string `json:"new_auth_tags"`
	Memo             string   `json:"memo"`
}

func (s *Server) transferArtwork(c echo.Context) error {
	artworkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req transferArtworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.TransferArtwork(c.Request().Context(), callerFrom(c), services.TransferArtworkParams{
		ArtworkID:            artworkID,
		From:                 req.From,
		To:                   req.To,
		FileIDs:              req.FileIDs,
		NewUserEncryptedDEKs: req.NewEncryptedDEKs,
		NewAuthTags:          req.NewAuthTags,
		Memo:                 req.Memo,
	}); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type deleteArtworkRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) deleteArtwork(c echo.Context) error {
	artworkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req deleteArtworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.DeleteArtwork(c.Request().Context(), callerFrom(c), artworkID, req.Owner); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listFiles(c echo.Context) error {
	artworkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	files, err := s.ledger.ListFiles(c.Request().Context(), artworkID)
	if err != nil {
		return err
	}

	out := make([]fileDTO, 0, len(files))
	for _, f := range files {
		out = append(out, toFileDTO(f))
	}
	return c.JSON(http.StatusOK, out)
}

type addFileRequest struct {
	FileID             uint64   `json:"file_id"`
	ArtworkID          uint64   `json:"artwork_id"`
	Owner              string   `json:"owner"`
	FilenameCipher     string   `json:"filename_cipher"`
	MimeType           string   `json:"mime_type"`
	FileSize           uint64   `json:"file_size"`
	ContentHash        string   `json:"content_hash"`
	EncryptedDEK       string   `json:"encrypted_dek"`
	AdminEncryptedDEKs []string `json:"admin_encrypted_deks"`
	IV                 string   `json:"iv"`
	AuthTag            string   `json:"auth_tag"`
	IsThumbnail        bool     `json:"is_thumbnail"`
}

func (s *Server) addFile(c echo.Context) error {
	var req addFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	f, err := s.ledger.AddFile(c.Request().Context(), callerFrom(c), services.AddFileParams{
		FileID:             req.FileID,
		ArtworkID:          req.ArtworkID,
		Owner:              req.Owner,
		FilenameCipher:     req.FilenameCipher,
		MimeType:           req.MimeType,
		FileSize:           req.FileSize,
		ContentHash:        req.ContentHash,
		UserEncryptedDEK:   req.EncryptedDEK,
		AdminEncryptedDEKs: req.AdminEncryptedDEKs,
		IV:                 req.IV,
		AuthTag:            req.AuthTag,
		IsThumbnail:        req.IsThumbnail,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toFileDTO(f))
}

func (s *Server) getFile(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	f, err := s.ledger.GetFile(c.Request().Context(), fileID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toFileDTO(f))
}

type deleteFileRequest struct {
	ArtworkID uint64 `json:"artwork_id"`
	Owner     string `json:"owner"`
}

func (s *Server) deleteFile(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req deleteFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.DeleteFile(c.Request().Context(), callerFrom(c), fileID, req.ArtworkID, req.Owner); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type uploadChunkRequest struct {
	ChunkID    uint64 `json:"chunk_id"`
	FileID     uint64 `json:"file_id"`
	Owner      string `json:"owner"`
	ChunkIndex uint32 `json:"chunk_index"`
	ChunkData  string `json:"chunk_data"`
	ChunkSize  uint32 `json:"chunk_size"`
}

func (s *Server) uploadChunk(c echo.Context) error {
	var req uploadChunkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.UploadChunk(c.Request().Context(), callerFrom(c), services.UploadChunkParams{
		ChunkID:    req.ChunkID,
		FileID:     req.FileID,
		Owner:      req.Owner,
		ChunkIndex: req.ChunkIndex,
		Payload:    req.ChunkData,
		ChunkSize:  req.ChunkSize,
	}); err != nil {
		return err
	}

	return c.NoContent(http.StatusCreated)
}

type completeFileRequest struct {
	Owner       string `json:"owner"`
	TotalChunks uint32 `json:"total_chunks"`
}

func (s *Server) completeFile(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req completeFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.ledger.CompleteFile(c.Request().Context(), callerFrom(c), fileID, req.Owner, req.TotalChunks); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) chunkPayload(c echo.Context) error {
	chunkID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	payload, err := s.ledger.ChunkPayload(c.Request().Context(), chunkID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"chunk_data": payload})
}

func (s *Server) chunkManifest(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	chunks, err := s.ledger.ChunkManifest(c.Request().Context(), fileID)
	if err != nil {
		return err
	}

	out := make([]chunkManifestDTO, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, toChunkManifestDTO(ch))
	}
	return c.JSON(http.StatusOK, out)
}
