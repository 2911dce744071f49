// Package tenant implements the per-tenant request dispatcher and the
// process-wide registry that materializes one on demand per user id.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/machinefabric/bearcub/message"
	"github.com/machinefabric/bearcub/skeleton"
)

const skeletonFileName = "blobs.bson"

// Provider answers every request for one tenant. Its in-memory skeleton is
// mutated under a single tenant-wide lock: reads take a snapshot under the
// same lock, and every mutation holds the lock for the duration of a
// request rather than just the critical section.
type Provider struct {
	mu sync.Mutex

	userID  string
	dataDir string // <data_dir>/<user_id>
	sk      *skeleton.Skeleton
}

func loadOrInit(baseDataDir, userID string) (*Provider, error) {
	dir := filepath.Join(baseDataDir, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Kind: ErrCreateDataDir, Message: fmt.Sprintf("create data dir %s", dir), Err: err}
	}

	path := filepath.Join(dir, skeletonFileName)
	var sk *skeleton.Skeleton
	if _, err := os.Stat(path); err == nil {
		sk, err = skeleton.FromFile(path)
		if err != nil {
			return nil, &Error{Kind: ErrLoadSkeleton, Message: fmt.Sprintf("load skeleton for %s", userID), Err: err}
		}
	} else {
		sk = skeleton.New()
	}

	return &Provider{userID: userID, dataDir: dir, sk: sk}, nil
}

func (p *Provider) skeletonPath() string {
	return filepath.Join(p.dataDir, skeletonFileName)
}

func (p *Provider) blobPath(id string) string {
	return filepath.Join(p.dataDir, id+".json")
}

// Handle dispatches one request to the matching operation and produces its
// response.
func (p *Provider) Handle(req message.Request) message.Response {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.Kind {
	case message.KindGet:
		return p.handleGet(req)
	case message.KindPut:
		return p.handlePut(req)
	case message.KindSet:
		return p.handleSet(req)
	case message.KindList:
		return p.handleList(req)
	default:
		// Remove and any unrecognized kind: not implemented by the core.
		return message.NewErrorResponse(message.ErrCodeInvalidMsg, "operation not implemented")
	}
}

func (p *Provider) handleGet(req message.Request) message.Response {
	switch {
	case req.HasID:
		return p.readBlobResponse(req.ID)
	case req.HasPath:
		node, ok := p.sk.GetByPath(req.Path)
		if !ok {
			return noSuchEntity(req.Path)
		}
		return p.readBlobResponse(node.ID)
	default:
		return noSuchEntity("")
	}
}

func (p *Provider) readBlobResponse(id string) message.Response {
	body, err := os.ReadFile(p.blobPath(id))
	if err != nil {
		return noSuchEntity(id)
	}
	return message.NewDataResponse(body)
}

func (p *Provider) handlePut(req message.Request) message.Response {
	title, err := extractTitle(req.Data)
	if err != nil {
		return invalidMessage(err.Error())
	}

	node := skeleton.NewNode(req.ID, title)
	if err := p.sk.AddNode(node, req.Parent, req.HasParent); err != nil {
		return invalidMessage(err.Error())
	}

	if err := p.sk.FlushToFile(p.skeletonPath()); err != nil {
		fmt.Fprintf(os.Stderr, "[provider] skeleton flush failed for user %s: %v\n", p.userID, err)
		return invalidMessage("storage error persisting skeleton")
	}
	if err := os.WriteFile(p.blobPath(req.ID), req.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "[provider] blob write failed for user %s: %v\n", p.userID, err)
		return invalidMessage("storage error writing blob body")
	}

	return message.NewDataResponse([]byte("SUCCESS"))
}

func (p *Provider) handleSet(req message.Request) message.Response {
	title, err := extractTitle(req.Data)
	if err != nil {
		return invalidMessage(err.Error())
	}

	p.sk.SetNode(skeleton.NewNode(req.ID, title))

	if err := p.sk.FlushToFile(p.skeletonPath()); err != nil {
		fmt.Fprintf(os.Stderr, "[provider] skeleton flush failed for user %s: %v\n", p.userID, err)
		return invalidMessage("storage error persisting skeleton")
	}
	if err := os.WriteFile(p.blobPath(req.ID), req.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "[provider] blob write failed for user %s: %v\n", p.userID, err)
		return invalidMessage("storage error writing blob body")
	}

	return message.NewDataResponse([]byte("SUCCESS"))
}

func (p *Provider) handleList(req message.Request) message.Response {
	data, err := p.sk.ToListing(req.BlobID, req.HasBlobID)
	if err != nil {
		return noSuchEntity(req.BlobID)
	}
	return message.NewDataResponse(data)
}

// extractTitle reads the top-level "title" string key out of a JSON body.
func extractTitle(data []byte) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", &Error{Kind: ErrInvalidJSON, Message: "body is not valid JSON", Err: err}
	}
	raw, ok := doc["title"]
	if !ok {
		return "", &Error{Kind: ErrMissingTitle, Message: `body has no top-level "title" key`}
	}
	title, ok := raw.(string)
	if !ok {
		return "", &Error{Kind: ErrTitleNotString, Message: `top-level "title" key is not a string`}
	}
	return title, nil
}

func noSuchEntity(what string) message.Response {
	return message.NewErrorResponse(message.ErrCodeNoSuchEntity, fmt.Sprintf("no such entity: %q", what))
}

func invalidMessage(reason string) message.Response {
	return message.NewErrorResponse(message.ErrCodeInvalidMsg, reason)
}
