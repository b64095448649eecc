package memclientrepo

import (
	"sort"
	"sync"

	"github.com/jrsteele09/go-oauth2-token-server/clients"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/internal/utils"
)

var _ clients.Repo = (*ClientRepo)(nil)

// ClientRepo keeps clients in memory.
type ClientRepo struct {
	clients map[string]*clients.Client
	lock    sync.RWMutex
}

func New() *ClientRepo {
	return &ClientRepo{
		clients: make(map[string]*clients.Client),
	}
}

func (r *ClientRepo) Upsert(clientData *clients.Client) error {
	if err := clientData.Validate(); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	c := *clientData
	r.clients[c.ID] = &c
	return nil
}

func (r *ClientRepo) Delete(clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.clients[clientID]; !ok {
		return ierrors.ErrNotFound
	}
	delete(r.clients, clientID)
	return nil
}

func (r *ClientRepo) Get(clientID string) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	c := *client
	return &c, nil
}

func (r *ClientRepo) List(offset, limit int) ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*clients.Client, 0, len(r.clients))
	for _, v := range r.clients {
		c := *v
		list = append(list, &c)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	return utils.Page(list, offset, limit), nil
}
