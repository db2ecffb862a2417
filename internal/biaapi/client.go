// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package biaapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when an accession id or uuid resolves to nothing.
var ErrNotFound = errors.New("not found")

// Default result limits, matching the archive's public defaults.
const (
	DefaultSearchLimit  = 8
	DefaultListingLimit = 20
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API base, e.g. "https://bia-cron-1.ebi.ac.uk:8080".
	BaseURL string

	// Username and Password obtain a bearer token when set. Anonymous
	// access works for public records.
	Username string
	Password string

	// DisableSSLHostCheck skips TLS host verification. The production
	// deployment sits behind a host with a mismatched certificate.
	DisableSSLHostCheck bool

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64

	Logger *logrus.Logger
}

// Client talks to the BIA integrator API. All calls are synchronous and
// blocking; transport failures propagate directly to the caller with no
// retries.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	memo     *gocache.Cache
	username string
	password string
	token    string
	log      *logrus.Entry
}

// NewClient creates a catalog API client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("create bia client: base URL is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.DisableSSLHostCheck {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Transport: transport, Timeout: 60 * time.Second},
		limiter:  limiter,
		memo:     gocache.New(gocache.NoExpiration, 0),
		username: opts.Username,
		password: opts.Password,
		log:      logger.WithField("component", "biaapi"),
	}, nil
}

// ResolveAccessionToUUID resolves a human-readable accession id (e.g.
// "S-BIAD144") to the study's uuid. Repeated lookups within a run are
// memoized.
func (c *Client) ResolveAccessionToUUID(ctx context.Context, accessionID string) (string, error) {
	memoKey := "uuid-by-accession:" + accessionID
	if v, ok := c.memo.Get(memoKey); ok {
		return v.(string), nil
	}

	q := url.Values{"accessions": {accessionID}}
	var infos []ObjectInfo
	if err := c.getJSON(ctx, "/api/object_info_by_accessions", q, &infos); err != nil {
		return "", fmt.Errorf("resolve accession %s: %w", accessionID, err)
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("resolve accession %s: %w", accessionID, ErrNotFound)
	}

	uuid := infos[0].UUID
	c.memo.Set(memoKey, uuid, gocache.NoExpiration)
	return uuid, nil
}

// GetStudy fetches a study by uuid. Memoized within the run: the aggregator
// needs the same study once per dataset record and once per image listing.
func (c *Client) GetStudy(ctx context.Context, uuid string) (Study, error) {
	memoKey := "study:" + uuid
	if v, ok := c.memo.Get(memoKey); ok {
		return v.(Study), nil
	}

	var study Study
	if err := c.getJSON(ctx, "/api/studies/"+uuid, nil, &study); err != nil {
		return Study{}, fmt.Errorf("get study %s: %w", uuid, err)
	}
	c.memo.Set(memoKey, study, gocache.NoExpiration)
	return study, nil
}

type searchFileRepresentation struct {
	Type string `json:"type"`
}

type searchImageFilter struct {
	StudyUUID               string                     `json:"study_uuid,omitempty"`
	OriginalRelpath         string                     `json:"original_relpath,omitempty"`
	ImageRepresentationsAny []searchFileRepresentation `json:"image_representations_any,omitempty"`
	Limit                   int                        `json:"limit,omitempty"`
}

// SearchImagesByRepresentationType returns up to limit images of a study that
// carry a representation with the exact type tag repType. Results come back
// in API order, which is stable within a run.
func (c *Client) SearchImagesByRepresentationType(ctx context.Context, studyUUID, repType string, limit int) ([]Image, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	filter := searchImageFilter{
		StudyUUID:               studyUUID,
		ImageRepresentationsAny: []searchFileRepresentation{{Type: repType}},
		Limit:                   limit,
	}

	var images []Image
	if err := c.searchImages(ctx, filter, &images); err != nil {
		return nil, fmt.Errorf("search images with rep %s in study %s: %w", repType, studyUUID, err)
	}
	return images, nil
}

// GetImageByAccessionAndRelpath finds the image of a study with the given
// original relative path, or ErrNotFound when no image matches.
func (c *Client) GetImageByAccessionAndRelpath(ctx context.Context, accessionID, relpath string) (Image, error) {
	studyUUID, err := c.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return Image{}, err
	}

	filter := searchImageFilter{StudyUUID: studyUUID, OriginalRelpath: relpath}
	var images []Image
	if err := c.searchImages(ctx, filter, &images); err != nil {
		return Image{}, fmt.Errorf("search image %s in %s: %w", relpath, accessionID, err)
	}
	if len(images) == 0 {
		return Image{}, fmt.Errorf("image %s in %s: %w", relpath, accessionID, ErrNotFound)
	}
	return images[0], nil
}

// GetImagesForStudy lists up to limit images of a study.
func (c *Client) GetImagesForStudy(ctx context.Context, studyUUID string, limit int) ([]Image, error) {
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	q := url.Values{
		"limit":             {strconv.Itoa(limit)},
		"apply_annotations": {"true"},
	}
	var images []Image
	if err := c.getJSON(ctx, "/api/studies/"+studyUUID+"/images", q, &images); err != nil {
		return nil, fmt.Errorf("get images for study %s: %w", studyUUID, err)
	}
	return images, nil
}

// GetFileReferencesForStudy lists up to limit file references of a study.
func (c *Client) GetFileReferencesForStudy(ctx context.Context, studyUUID string, limit int) ([]FileReference, error) {
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	q := url.Values{
		"limit":             {strconv.Itoa(limit)},
		"apply_annotations": {"true"},
	}
	var refs []FileReference
	if err := c.getJSON(ctx, "/api/studies/"+studyUUID+"/file_references", q, &refs); err != nil {
		return nil, fmt.Errorf("get file references for study %s: %w", studyUUID, err)
	}
	return refs, nil
}

// GetAnnotationFilesForStudy lists the study's file references that are
// annotation files, in API order.
func (c *Client) GetAnnotationFilesForStudy(ctx context.Context, studyUUID string, limit int) ([]FileReference, error) {
	refs, err := c.GetFileReferencesForStudy(ctx, studyUUID, limit)
	if err != nil {
		return nil, err
	}
	annotations := make([]FileReference, 0, len(refs))
	for _, ref := range refs {
		if ref.IsAnnotation() {
			annotations = append(annotations, ref)
		}
	}
	return annotations, nil
}

// GetImage fetches a single image by uuid.
func (c *Client) GetImage(ctx context.Context, uuid string) (Image, error) {
	var image Image
	if err := c.getJSON(ctx, "/api/images/"+uuid, nil, &image); err != nil {
		return Image{}, fmt.Errorf("get image %s: %w", uuid, err)
	}
	return image, nil
}

// GetImageAcquisition fetches an image acquisition record by uuid.
func (c *Client) GetImageAcquisition(ctx context.Context, uuid string) (ImageAcquisition, error) {
	var acq ImageAcquisition
	if err := c.getJSON(ctx, "/api/image_acquisitions/"+uuid, nil, &acq); err != nil {
		return ImageAcquisition{}, fmt.Errorf("get image acquisition %s: %w", uuid, err)
	}
	return acq, nil
}

// GetSpecimen fetches a specimen record by uuid.
func (c *Client) GetSpecimen(ctx context.Context, uuid string) (Specimen, error) {
	var specimen Specimen
	if err := c.getJSON(ctx, "/api/specimens/"+uuid, nil, &specimen); err != nil {
		return Specimen{}, fmt.Errorf("get specimen %s: %w", uuid, err)
	}
	return specimen, nil
}

// GetBiosample fetches a biosample record by uuid.
func (c *Client) GetBiosample(ctx context.Context, uuid string) (Biosample, error) {
	var biosample Biosample
	if err := c.getJSON(ctx, "/api/biosamples/"+uuid, nil, &biosample); err != nil {
		return Biosample{}, fmt.Errorf("get biosample %s: %w", uuid, err)
	}
	return biosample, nil
}

func (c *Client) searchImages(ctx context.Context, filter searchImageFilter, out *[]Image) error {
	body, err := json.Marshal(filter)
	if err != nil {
		return err
	}
	q := url.Values{"apply_annotations": {"true"}}
	return c.doJSON(ctx, http.MethodPost, "/api/search/images/exact_match", q, bytes.NewReader(body), out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ensureToken performs the password-grant token exchange once per run.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.username == "" || c.token != "" {
		return nil
	}

	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authenticate: HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("authenticate: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("authenticate: empty access token")
	}
	c.token = token.AccessToken
	return nil
}
