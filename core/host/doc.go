// Package host describes the automation surface of the simulation host
// application as seen by the exporters. Implementations live in infra/host.
//
// The model is deliberately narrow: an Application hands out Objects from the
// active project and study case, Objects carry named attributes and can be
// executed, and a Script exposes the parameters a host-triggered run was
// started with.
package host
