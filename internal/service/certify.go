package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"sigillum/internal/doccode"
	"sigillum/internal/hash"
	"sigillum/internal/model"
	"sigillum/internal/qrstamp"
	"sigillum/internal/registry"
	"sigillum/internal/storage"
)

// Stamper embeds the verification QR into PDF bytes. Satisfied by
// *qrstamp.Stamper; an interface so tests can substitute it.
type Stamper interface {
	Stamp(pdf []byte, verificationURL string, opt qrstamp.Options) ([]byte, error)
}

// RegisterInput carries one uploaded PDF through the direct registration path.
type RegisterInput struct {
	Data        []byte
	Filename    string
	ContentType string
	QR          qrstamp.Options
}

// RegisterResult is the payload returned for a completed registration.
type RegisterResult struct {
	DocCode   string `json:"doc_code"`
	VerifyURL string `json:"verify_url"`
	FilePath  string `json:"file_path"`
	FileHash  string `json:"file_hash"`
}

// UploadTicket is phase 1 of the two-phase path: the doc_code doubles as the
// only correlation token between the presigned upload and the later Process
// call; its lifetime is bounded by the presigned URL's expiry.
type UploadTicket struct {
	DocCode   string `json:"doc_code"`
	TempKey   string `json:"temp_key"`
	UploadURL string `json:"upload_url"`
}

// ResolveResult delivers a certified copy. Exactly one of Content and
// RedirectURL is set, depending on the storage deployment mode.
type ResolveResult struct {
	Record      *model.DocumentRecord
	Content     []byte
	RedirectURL string
}

// VerifyResult reports a hash comparison without persisting anything.
type VerifyResult struct {
	DocCode      string `json:"doc_code"`
	UploadedHash string `json:"uploaded_hash"`
	StoredHash   string `json:"stored_hash"`
	Match        bool   `json:"match"`
}

// CertificationService composes stamping, hashing, storage and the registry
// into the register / resolve / verify flows.
type CertificationService interface {
	// Register runs the direct path: validate -> stamp -> hash -> store -> record.
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)

	// PresignedUploads reports whether the storage backend can issue
	// presigned URLs (i.e. whether the two-phase path is available).
	PresignedUploads() bool

	// InitUpload starts the two-phase path by issuing a presigned PUT URL
	// for a temporary key.
	InitUpload(ctx context.Context) (*UploadTicket, error)

	// Process finishes the two-phase path: reads the temp object and runs
	// the same stamp -> hash -> store -> record sequence, then cleans up the
	// temp object best-effort.
	Process(ctx context.Context, docCode string, qr qrstamp.Options) (*RegisterResult, error)

	// Resolve returns the certified copy for a code, streaming bytes in
	// local mode or a short-lived signed URL in s3 mode. Revoked records
	// still resolve; the caller reports the revoked status alongside.
	Resolve(ctx context.Context, docCode string) (*ResolveResult, error)

	// Verify hashes a candidate file and compares it to the stored hash.
	Verify(ctx context.Context, docCode string, candidate io.Reader) (*VerifyResult, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]model.DocumentRecord, error)

	// Revoke marks a document no longer certified. Already-revoked is a
	// conflict, unknown codes are not found.
	Revoke(ctx context.Context, docCode string) error
}

type certificationService struct {
	store   storage.Service
	reg     registry.DocumentRegistry
	stamper Stamper
	hasher  *hash.Hasher

	baseURL        string
	maxUploadBytes int64

	// injectable for tests
	generateCode func() (string, error)
	now          func() time.Time
}

// Options tune the service; zero values fall back to defaults.
type Options struct {
	BaseURL        string
	MaxUploadBytes int64
}

// NewCertificationService constructs the orchestrator. The storage backend
// decides the deployment mode: when it implements storage.SignedService the
// two-phase upload path and redirect-based resolution are enabled.
func NewCertificationService(store storage.Service, reg registry.DocumentRegistry, stamper Stamper, hasher *hash.Hasher, opts Options) CertificationService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	return &certificationService{
		store:          store,
		reg:            reg,
		stamper:        stamper,
		hasher:         hasher,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		maxUploadBytes: opts.MaxUploadBytes,
		generateCode:   doccode.Generate,
		now:            time.Now,
	}
}

func permanentKey(docCode string) string { return "documents/" + docCode + ".pdf" }
func tempKey(docCode string) string      { return "uploads/temp/" + docCode + ".pdf" }

func (s *certificationService) verifyURL(docCode string) string {
	return s.baseURL + "/v/" + docCode
}

func (s *certificationService) signedStore() (storage.SignedService, bool) {
	ss, ok := s.store.(storage.SignedService)
	return ss, ok
}

func (s *certificationService) PresignedUploads() bool {
	_, ok := s.signedStore()
	return ok
}

func (s *certificationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if len(in.Data) == 0 {
		return nil, newError(KindValidation, CodeEmptyFile, "uploaded file is empty")
	}
	if int64(len(in.Data)) > s.maxUploadBytes {
		return nil, newError(KindValidation, CodeFileTooLarge,
			fmt.Sprintf("file too large (%d bytes), maximum is %d bytes", len(in.Data), s.maxUploadBytes))
	}
	if !acceptableMIME(in.ContentType, in.Filename) {
		return nil, newError(KindValidation, CodeInvalidMIME,
			fmt.Sprintf("invalid file type %q, only PDF is accepted", in.ContentType))
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, wrapError(KindInternal, CodeInternal, "generate document code", err)
	}

	return s.certify(ctx, code, in.Data, in.QR)
}

func (s *certificationService) InitUpload(ctx context.Context) (*UploadTicket, error) {
	signed, ok := s.signedStore()
	if !ok {
		return nil, newError(KindValidation, CodeInternal, "presigned uploads are not available in this deployment")
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, wrapError(KindInternal, CodeInternal, "generate document code", err)
	}

	key := tempKey(code)
	uploadURL, err := signed.SignedUploadURL(ctx, key, storage.DefaultUploadTTL)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "issue presigned upload URL", err)
	}

	return &UploadTicket{DocCode: code, TempKey: key, UploadURL: uploadURL}, nil
}

func (s *certificationService) Process(ctx context.Context, docCode string, qr qrstamp.Options) (*RegisterResult, error) {
	if !doccode.Valid(docCode) {
		return nil, newError(KindValidation, CodeInvalidDocCode, "missing or invalid doc_code")
	}

	temp := tempKey(docCode)
	exists, err := s.store.Exists(ctx, temp)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "check temp upload", err)
	}
	if !exists {
		return nil, newError(KindNotFound, CodeUploadMissing,
			"uploaded file not found in temp storage; upload may have failed or expired")
	}

	raw, err := s.store.Read(ctx, temp)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "read temp upload", err)
	}
	if int64(len(raw)) > s.maxUploadBytes {
		return nil, newError(KindValidation, CodeFileTooLarge,
			fmt.Sprintf("file too large (%d bytes), maximum is %d bytes", len(raw), s.maxUploadBytes))
	}

	res, err := s.certify(ctx, docCode, raw, qr)
	if err != nil {
		return nil, err
	}

	// Best-effort temp cleanup: the permanent record and blob already exist
	// and are authoritative, so a failure here is logged, never surfaced.
	if signed, ok := s.signedStore(); ok {
		if delErr := signed.Delete(ctx, temp); delErr != nil {
			log.Printf(`{"component":"service","event":"temp_delete_failed","level":"warn","key":%q,"error":%q}`,
				temp, delErr.Error())
		}
	}

	return res, nil
}

// certify is the shared tail of both registration paths. The order is fixed:
// stamp, then hash the stamped bytes, then store, then record. Reordering any
// of these is a correctness bug, not a style choice.
func (s *certificationService) certify(ctx context.Context, docCode string, raw []byte, qr qrstamp.Options) (*RegisterResult, error) {
	verifyURL := s.verifyURL(docCode)

	stamped, err := s.stamper.Stamp(raw, verifyURL, qr)
	if err != nil {
		if errors.Is(err, qrstamp.ErrInvalidInput) {
			return nil, wrapError(KindValidation, CodeInvalidPDF, "input is not a valid PDF document", err)
		}
		return nil, wrapError(KindInternal, CodeStampFailed, "embedding QR code failed", err)
	}

	fileHash := s.hasher.SumBytes(stamped)

	key := permanentKey(docCode)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "check target key", err)
	}
	if exists {
		// One code maps to exactly one file forever; never overwrite.
		return nil, newError(KindConflict, CodeStorageConflict,
			"a file already exists for this code; retry with a fresh upload")
	}

	filePath, err := s.store.Save(ctx, key, stamped)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "save stamped document", err)
	}

	rec, err := s.reg.Create(ctx, model.NewDocument{
		DocCode:    docCode,
		FilePath:   filePath,
		FileHash:   fileHash,
		UploadedAt: s.now().UTC(),
	})
	if err != nil {
		// The stored blob stays behind unreferenced; acceptable collateral.
		// The caller must still receive a failure, not a fabricated record.
		if errors.Is(err, registry.ErrDuplicateCode) {
			return nil, wrapError(KindConflict, CodeDuplicateCode, "document code already registered", err)
		}
		return nil, wrapError(KindInternal, CodeInternal, "record document", err)
	}

	return &RegisterResult{
		DocCode:   rec.DocCode,
		VerifyURL: verifyURL,
		FilePath:  rec.FilePath,
		FileHash:  rec.FileHash,
	}, nil
}

func (s *certificationService) Resolve(ctx context.Context, docCode string) (*ResolveResult, error) {
	rec, err := s.reg.GetByCode(ctx, docCode)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, newError(KindNotFound, CodeNotFound, "document not found")
		}
		return nil, wrapError(KindUnavailable, CodeUnavailable, "look up document", err)
	}

	if signed, ok := s.signedStore(); ok {
		u, err := signed.SignedDownloadURL(ctx, rec.FilePath, storage.DefaultDownloadTTL)
		if err != nil {
			return nil, wrapError(KindUnavailable, CodeUnavailable, "issue signed download URL", err)
		}
		return &ResolveResult{Record: rec, RedirectURL: u}, nil
	}

	exists, err := s.store.Exists(ctx, rec.FilePath)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "check stored file", err)
	}
	if !exists {
		log.Printf(`{"component":"service","event":"data_integrity","level":"error","doc_code":%q,"file_path":%q,"msg":"record exists but file is missing from storage"}`,
			rec.DocCode, rec.FilePath)
		return nil, newError(KindDataIntegrity, CodeFileMissing,
			"document record exists but file is missing from storage")
	}

	content, err := s.store.Read(ctx, rec.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newError(KindDataIntegrity, CodeFileMissing,
				"document record exists but file is missing from storage")
		}
		return nil, wrapError(KindUnavailable, CodeUnavailable, "read stored file", err)
	}

	return &ResolveResult{Record: rec, Content: content}, nil
}

func (s *certificationService) Verify(ctx context.Context, docCode string, candidate io.Reader) (*VerifyResult, error) {
	if candidate == nil {
		return nil, newError(KindValidation, CodeFileRequired, "file is required")
	}
	docCode = strings.TrimSpace(docCode)
	if docCode == "" {
		return nil, newError(KindValidation, CodeInvalidDocCode, "missing field: doc_code")
	}

	rec, err := s.reg.GetByCode(ctx, docCode)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, newError(KindNotFound, CodeNotRegistered, "document not registered")
		}
		return nil, wrapError(KindUnavailable, CodeUnavailable, "look up document", err)
	}

	if rec.FileHash == "" {
		return nil, newError(KindValidation, CodeNoStoredHash,
			"stored document has no hash on record, cannot verify")
	}

	uploadedHash, err := s.hasher.SumReader(candidate)
	if err != nil {
		return nil, wrapError(KindInternal, CodeInternal, "hash uploaded file", err)
	}

	return &VerifyResult{
		DocCode:      rec.DocCode,
		UploadedHash: uploadedHash,
		StoredHash:   rec.FileHash,
		Match:        uploadedHash == rec.FileHash,
	}, nil
}

func (s *certificationService) List(ctx context.Context) ([]model.DocumentRecord, error) {
	items, err := s.reg.List(ctx)
	if err != nil {
		return nil, wrapError(KindUnavailable, CodeUnavailable, "list documents", err)
	}
	return items, nil
}

func (s *certificationService) Revoke(ctx context.Context, docCode string) error {
	docCode = strings.TrimSpace(docCode)
	if docCode == "" {
		return newError(KindValidation, CodeInvalidDocCode, "missing field: doc_code")
	}

	rec, err := s.reg.GetByCode(ctx, docCode)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return newError(KindNotFound, CodeNotFound, "document not found")
		}
		return wrapError(KindUnavailable, CodeUnavailable, "look up document", err)
	}
	if rec.Revoked {
		return newError(KindConflict, CodeAlreadyRevoked, "document is already revoked")
	}

	changed, err := s.reg.Revoke(ctx, docCode)
	if err != nil {
		return wrapError(KindInternal, CodeInternal, "revoke document", err)
	}
	if !changed {
		// Raced with another revoke between lookup and update.
		return newError(KindConflict, CodeAlreadyRevoked, "document is already revoked")
	}
	return nil
}

func acceptableMIME(contentType, filename string) bool {
	if contentType == "application/pdf" {
		return true
	}
	return contentType == "" && strings.EqualFold(filepath.Ext(filename), ".pdf")
}
