package sqlinline

const QEnqueueJob = `--sql 7c1c2f43-9a41-4a76-bd2e-64f1f9c2d7aa
insert into jobs (id, trace_id, payload, status)
values ($1, $2, $3, 'pending');
`

// QClaimJob claims the oldest visible message. Rows still marked processing
// whose visibility window lapsed are redeliveries, so their retry count is
// bumped as part of the claim.
const QClaimJob = `--sql 0d8f3b6e-2c15-4f0a-9b77-3e52a81cd94b
with next_job as (
    select id, status
    from jobs
    where status in ('pending', 'processing')
      and not abandoned
      and visible_at <= now()
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update jobs
    set status = 'processing',
        receipt = $1,
        retry_count = retry_count
            + (case when (select status from next_job) = 'processing' then 1 else 0 end),
        visible_at = now() + make_interval(secs => $2),
        updated_at = now()
    where id in (select id from next_job)
    returning id, payload, retry_count
)
select * from claimed;
`

const QCompleteJob = `--sql 5b9e17d2-63af-45c8-8a01-bb4f6c3da215
update jobs
set status = 'completed', receipt = null, updated_at = now()
where id = $1 and receipt = $2;
`

const QUpdateJobStatus = `--sql e3a4c5d9-18f2-4b6a-95c3-7d20e9f1ab38
update jobs
set status = $2, updated_at = now()
where id = $1;
`

const QGetJobStatus = `--sql 9f62ab04-d7c1-4e88-b2f5-1c83d4a6e507
select status, retry_count, abandoned
from jobs
where id = $1;
`

// QRetryFailed re-enqueues failed jobs still under the retry ceiling. The
// re-enqueue itself is the retry, so the count advances here; claiming a
// pending row does not touch it.
const QRetryFailed = `--sql 2a75e8c1-4b09-4dd3-a6f8-90e1b5c72d46
update jobs
set status = 'pending', receipt = null, retry_count = retry_count + 1,
    visible_at = now(), updated_at = now()
where status = 'failed' and not abandoned and retry_count < $1;
`

const QAbandonExhausted = `--sql c48d01f6-7e2b-4a95-8c3d-52f9a0b61e77
update jobs
set abandoned = true, updated_at = now()
where status = 'failed' and not abandoned and retry_count >= $1;
`

const QListRecentJobs = `--sql 6e20b9a3-f514-4c67-91d8-84a7c2e5f309
select id, trace_id, status, retry_count, abandoned, created_at
from jobs
order by created_at desc
limit $1;
`
