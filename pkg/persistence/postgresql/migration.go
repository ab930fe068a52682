package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL DEFAULT 'draft',
				trigger_type VARCHAR(20) NOT NULL,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				execution_count BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_status ON workflows(status) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_workflows_trigger_type ON workflows(trigger_type) WHERE deleted_at IS NULL;

			CREATE TABLE IF NOT EXISTS workflow_actions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				type VARCHAR(50) NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				delay_seconds INTEGER NOT NULL DEFAULT 0,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_actions_workflow ON workflow_actions(workflow_id, sort_order, id);

			CREATE TABLE IF NOT EXISTS workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				status VARCHAR(20) NOT NULL,
				current_step INTEGER NOT NULL DEFAULT 0,
				trigger_event TEXT NOT NULL DEFAULT '',
				log JSONB NOT NULL DEFAULT '[]',
				version BIGINT NOT NULL DEFAULT 1,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_executions_workflow ON workflow_executions(workflow_id, started_at DESC);
			CREATE INDEX IF NOT EXISTS idx_workflow_executions_status ON workflow_executions(status);

			CREATE TABLE IF NOT EXISTS pending_wakes (
				execution_id UUID PRIMARY KEY,
				wake_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_pending_wakes_wake_at ON pending_wakes(wake_at);

			CREATE TABLE IF NOT EXISTS contacts (
				id VARCHAR(255) PRIMARY KEY,
				email VARCHAR(255) NOT NULL DEFAULT '',
				first_name VARCHAR(255) NOT NULL DEFAULT '',
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				tags JSONB NOT NULL DEFAULT '[]',
				lists JSONB NOT NULL DEFAULT '[]',
				courses JSONB NOT NULL DEFAULT '[]',
				fields JSONB NOT NULL DEFAULT '{}',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
