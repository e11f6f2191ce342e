package lock

import (
	"fmt"
	"sync"

	"github.com/pixperk/padlock/pkg/registry"
)

// fakeKernel enforces one binding per name, like the abstract namespace
type fakeKernel struct {
	mu        sync.Mutex
	bound     map[string]*fakeResource
	resources []*fakeResource
	gate      chan struct{} // handed to resources created from now on
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{bound: make(map[string]*fakeResource)}
}

func (k *fakeKernel) factory(opts ...registry.Option) registry.Resource {
	k.mu.Lock()
	defer k.mu.Unlock()

	r := &fakeResource{kernel: k, opts: opts, gate: k.gate}
	k.resources = append(k.resources, r)
	return r
}

func (k *fakeKernel) setGate(gate chan struct{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.gate = gate
}

func (k *fakeKernel) isBound(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.bound[name]
	return ok
}

func (k *fakeKernel) created() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.resources)
}

// latest resource handed out
func (k *fakeKernel) last() *fakeResource {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.resources[len(k.resources)-1]
}

type fakeResource struct {
	kernel *fakeKernel
	opts   []registry.Option

	mu         sync.Mutex
	name       string
	gate       chan struct{} // when set, Bind waits for it to close
	bindErr    error
	releaseErr error
	binds      int
	releases   int
}

func (r *fakeResource) Bind(name string) error {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.binds++

	if r.bindErr != nil {
		return r.bindErr
	}

	r.kernel.mu.Lock()
	defer r.kernel.mu.Unlock()
	if _, taken := r.kernel.bound[name]; taken {
		return fmt.Errorf("bind @%s: %w", name, registry.ErrNameInUse)
	}
	r.kernel.bound[name] = r
	r.name = name
	return nil
}

func (r *fakeResource) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++

	if r.releaseErr != nil {
		return r.releaseErr
	}
	if r.name == "" {
		return nil
	}

	r.kernel.mu.Lock()
	delete(r.kernel.bound, r.name)
	r.kernel.mu.Unlock()
	r.name = ""
	return nil
}

func (r *fakeResource) setGate(gate chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = gate
}

func (r *fakeResource) setBindErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindErr = err
}

func (r *fakeResource) setReleaseErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseErr = err
}

func (r *fakeResource) counts() (binds, releases int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.binds, r.releases
}
