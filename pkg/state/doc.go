// Package state holds the Form State Store and the durable storage contract
// behind it.
//
// Store[T] loads, saves and deletes one snapshot per Ref. The FormStore owns a
// wizard's Application Record and Current Step Pointer in memory and mirrors
// them to a Store[[]byte] as JSON text under the sequencer's record and step
// keys (Sequencer.RecordKey and Sequencer.StepKey, set with
// wizard.WithStorageKeys; the IGP wizard uses "igp_commercialisation_form"
// and "igp_current_step"):
//
//	FormStore.SetStepData -> JSON record -> Store.Save(Ref{Key: seq.RecordKey()})
//	FormStore.SetCurrentStep -> JSON int -> Store.Save(Ref{Key: seq.StepKey()})
//
// With wizard.LayoutFlat only the record key is written; the gate derives the
// step on reopen.
//
// A FormStore moves through Uninitialized -> Hydrated -> Ready. Hydrate reads
// the durable copy exactly once; automatic writes only start after it. The
// consumer calls MarkReady after its post-hydration validation pass.
package state
