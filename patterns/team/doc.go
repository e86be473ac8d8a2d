// Package team coordinates several ReAct agents behind a leader. Each member
// is exposed to the leader as a transfer_task_to_<member> tool; calling it
// runs the member's own loop and hands its answer back to the leader, which
// composes the reply.
//
// A [Team] satisfies the answering capability used by the conversation
// manager: [Team.Answer] writes the reply to the configured output, either
// as it streams or once complete, and returns it.
package team
